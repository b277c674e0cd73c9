package repository

import (
	"context"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// SubmissionRepository stores submissions and reads back their import results.
type SubmissionRepository interface {
	// CreateAll inserts the submissions in one transaction. Each row is
	// flushed before the next one, so IDs are assigned in order; nothing is
	// visible to other transactions until every row has been written.
	CreateAll(ctx context.Context, submissions []*model.Submission) error
	// FindImportedTrackGids maps submission ids to the gid of the track they
	// were imported into. Pending submissions are absent from the map.
	FindImportedTrackGids(ctx context.Context, ids []int64) (map[int64]string, error)
}

type gormSubmissionRepository struct {
	db *gorm.DB
}

// NewGormSubmissionRepository 创建提交仓库
func NewGormSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &gormSubmissionRepository{db: db}
}

func (r *gormSubmissionRepository) CreateAll(ctx context.Context, submissions []*model.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range submissions {
			if err := tx.Create(s).Error; err != nil {
				return fmt.Errorf("failed to insert submission: %w", err)
			}
		}
		return nil
	})
}

func (r *gormSubmissionRepository) FindImportedTrackGids(ctx context.Context, ids []int64) (map[int64]string, error) {
	result := make(map[int64]string)
	if len(ids) == 0 {
		return result, nil
	}

	var results []model.SubmissionResult
	err := r.db.WithContext(ctx).
		Select("submission_id", "track_id").
		Where("submission_id IN ?", ids).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up submission results: %w", err)
	}
	if len(results) == 0 {
		return result, nil
	}

	trackIDs := make([]int64, 0, len(results))
	for _, res := range results {
		trackIDs = append(trackIDs, res.TrackID)
	}

	var tracks []model.Track
	if err := r.db.WithContext(ctx).Select("id", "gid").Where("id IN ?", trackIDs).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to look up tracks: %w", err)
	}
	gids := make(map[int64]string, len(tracks))
	for _, t := range tracks {
		gids[t.ID] = t.Gid
	}

	for _, res := range results {
		if gid, ok := gids[res.TrackID]; ok {
			result[res.SubmissionID] = gid
		}
	}
	return result, nil
}
