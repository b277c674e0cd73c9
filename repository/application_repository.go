package repository

import (
	"context"
	"errors"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// ApplicationRepository resolves client API keys.
type ApplicationRepository interface {
	FindActiveByAPIKey(ctx context.Context, apiKey string) (*model.Application, error)
}

type gormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository 创建应用仓库
func NewGormApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &gormApplicationRepository{db: db}
}

// FindActiveByAPIKey returns nil when no active application uses apiKey.
func (r *gormApplicationRepository) FindActiveByAPIKey(ctx context.Context, apiKey string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("apikey = ? AND active = ?", apiKey, true).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up application: %w", err)
	}
	return &app, nil
}
