package repository

import (
	"context"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// MetadataRepository reads the denormalized MusicBrainz metadata rows.
type MetadataRepository interface {
	// FindByRecordingIDs returns rows for the given recordings in storage order.
	// Without releases only the first row of each recording is returned and
	// its release level fields are cleared.
	FindByRecordingIDs(ctx context.Context, mbids []string, withReleases bool) ([]model.MetadataRow, error)
}

type gormMetadataRepository struct {
	db *gorm.DB
}

// NewGormMetadataRepository 创建元数据仓库
func NewGormMetadataRepository(db *gorm.DB) MetadataRepository {
	return &gormMetadataRepository{db: db}
}

func (r *gormMetadataRepository) FindByRecordingIDs(ctx context.Context, mbids []string, withReleases bool) ([]model.MetadataRow, error) {
	if len(mbids) == 0 {
		return nil, nil
	}

	var rows []model.MetadataRow
	err := r.db.WithContext(ctx).
		Where("recording_id IN ?", mbids).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up recording metadata: %w", err)
	}
	if withReleases {
		return rows, nil
	}

	seen := make(map[string]bool, len(mbids))
	recordings := rows[:0]
	for _, row := range rows {
		if seen[row.RecordingID] {
			continue
		}
		seen[row.RecordingID] = true
		recordings = append(recordings, model.MetadataRow{
			ID:                row.ID,
			RecordingID:       row.RecordingID,
			RecordingTitle:    row.RecordingTitle,
			RecordingDuration: row.RecordingDuration,
			RecordingArtists:  row.RecordingArtists,
		})
	}
	return recordings, nil
}
