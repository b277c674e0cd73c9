package repository

import (
	"context"
	"errors"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// AccountRepository resolves user API keys.
type AccountRepository interface {
	FindIDByAPIKey(ctx context.Context, apiKey string) (int64, error)
}

type gormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository 创建账户仓库
func NewGormAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

// FindIDByAPIKey returns 0 when the key is unknown.
func (r *gormAccountRepository) FindIDByAPIKey(ctx context.Context, apiKey string) (int64, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Select("id").
		Where("apikey = ?", apiKey).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to look up account: %w", err)
	}
	return account.ID, nil
}
