package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/storage"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *storage.Postgres
}

func NewAccountRepository(db *storage.Postgres) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.DB.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) FindByKeyHash(ctx context.Context, hash string) (*models.Account, error) {
	var account models.Account
	err := r.db.DB.WithContext(ctx).
		Where("key_hash = ?", hash).
		First(&account).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &account, err
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &account, err
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.DB.WithContext(ctx).
		Where("email = ?", email).
		First(&account).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &account, err
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&accounts).Error

	return accounts, err
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *AccountRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("last_used_at", time.Now()).Error
}

// IncrementRequestCount bumps the lifetime usage counter with a single
// UPDATE expression so concurrent increments are not lost.
func (r *AccountRepository) IncrementRequestCount(ctx context.Context, id uuid.UUID, n int) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("request_count", gorm.Expr("request_count + ?", n)).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Account{}).Error
}
