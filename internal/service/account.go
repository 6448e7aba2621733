package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/circuitbreaker"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/repository"
	"github.com/polyui/catalog-mcp/internal/storage"
)

const (
	keyPrefix = "cat_"
	cacheTTL  = 5 * time.Minute
)

// AccountService owns API-key lifecycle and credential resolution. Lookups
// go through a Redis read-through cache; database reads behind a circuit
// breaker so a dead store fails fast instead of piling up timeouts.
type AccountService struct {
	repo    *repository.AccountRepository
	cache   *storage.RedisClient
	breaker *circuitbreaker.Breaker
}

func NewAccountService(repo *repository.AccountRepository, cache *storage.RedisClient, breaker *circuitbreaker.Breaker) *AccountService {
	return &AccountService{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
	}
}

// HashKey derives the stored identifier for a plaintext API key. The hash
// doubles as the credential id for sessions and rate limiting.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Create registers an account and returns the plaintext key. The key is
// only visible here; storage keeps the hash.
func (s *AccountService) Create(ctx context.Context, email, name, tier string) (string, *models.Account, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	key := keyPrefix + base64.URLEncoding.EncodeToString(keyBytes)

	account := &models.Account{
		Email:   email,
		Name:    name,
		KeyHash: HashKey(key),
		Status:  models.StatusActive,
		Tier:    tier,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return "", nil, fmt.Errorf("failed to create account: %w", err)
	}

	return key, account, nil
}

// ResolveByKey maps a presented key to its account, or (nil, nil) when no
// account matches. Store errors (including an open breaker) surface to the
// caller, which fails closed.
func (s *AccountService) ResolveByKey(ctx context.Context, key string) (*models.Account, error) {
	keyHash := HashKey(key)

	cacheKey := "account:cache:" + keyHash
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var account models.Account
		if err := json.Unmarshal([]byte(cached), &account); err == nil {
			return &account, nil
		}
	}

	var account *models.Account
	err := s.breaker.Do(func() error {
		var lookupErr error
		account, lookupErr = s.repo.FindByKeyHash(ctx, keyHash)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, nil
	}

	if data, err := json.Marshal(account); err == nil {
		s.cache.Set(ctx, cacheKey, data, cacheTTL)
	}

	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.repo.List(ctx)
}

// SetStatus changes an account's status and drops the cached credential so
// the change is visible before the cache TTL lapses.
func (s *AccountService) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.invalidateCache(ctx, id.String())
	return nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	s.invalidateCache(ctx, id)
	return s.repo.Delete(ctx, id)
}

// RecordUse bumps the lifetime counter and last-used stamp. Best effort:
// callers swallow the error.
func (s *AccountService) RecordUse(ctx context.Context, id uuid.UUID, calls int) error {
	if err := s.repo.IncrementRequestCount(ctx, id, calls); err != nil {
		return err
	}
	return s.repo.UpdateLastUsed(ctx, id)
}

func (s *AccountService) invalidateCache(ctx context.Context, id string) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil || account == nil {
		return
	}

	s.cache.Del(ctx, "account:cache:"+account.KeyHash)
}
