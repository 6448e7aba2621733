// Package session manages durable session records. Expiry is one invariant
// enforced two ways: reads lazily delete expired rows for correctness, and a
// periodic sweep deletes them in bulk to bound table growth. An expired
// session is never observed as live.
package session

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
)

// Repo is the durable-store surface the adapter needs. Satisfied by
// repository.SessionRepository.
type Repo interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateAccess(ctx context.Context, sessionID string, accessedAt, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Store struct {
	repo Repo
	ttl  time.Duration

	now  func() time.Time
	stop chan struct{}
}

func NewStore(repo Repo, ttl time.Duration) *Store {
	return &Store{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
}

// Create mints a session with a fresh unguessable identifier. Identifiers
// are never reused, even after deletion.
func (s *Store) Create(ctx context.Context, credentialID, ownerIdentity string) (*models.Session, error) {
	now := s.now()

	session := &models.Session{
		SessionID:      uuid.NewString(),
		CredentialID:   credentialID,
		OwnerIdentity:  ownerIdentity,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.ttl),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Get returns the session or (nil, nil) when absent. A row read after its
// lease passed is deleted and treated as absent: the store's own sweep runs
// on a delay and is only a backstop.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			log.Printf("session: failed to delete expired session %s: %v", sessionID, err)
		}
		return nil, nil
	}

	return session, nil
}

// Touch extends the lease to now + TTL. Touching a session that no longer
// exists is a no-op, not an error. Concurrent touches race last-writer-wins;
// both extend the same lease in the same direction.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	now := s.now()
	return s.repo.UpdateAccess(ctx, sessionID, now, now.Add(s.ttl))
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// StartSweeper launches the bulk-expiry backstop.
func (s *Store) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.repo.DeleteExpired(ctx, s.now())
				cancel()

				if err != nil {
					log.Printf("session: sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("session: sweep removed %d expired sessions", n)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Store) Stop() {
	close(s.stop)
}
