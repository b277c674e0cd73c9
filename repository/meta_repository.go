package repository

import (
	"context"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// MetaRepository reads user submitted track metadata.
type MetaRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.Meta, error)
}

type gormMetaRepository struct {
	db *gorm.DB
}

// NewGormMetaRepository 创建用户元数据仓库
func NewGormMetaRepository(db *gorm.DB) MetaRepository {
	return &gormMetaRepository{db: db}
}

// FindByIDs returns the metadata records ordered by id.
func (r *gormMetaRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Meta, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var metas []model.Meta
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&metas).Error; err != nil {
		return nil, fmt.Errorf("failed to look up meta: %w", err)
	}
	return metas, nil
}
