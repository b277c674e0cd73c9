package repository

import (
	"context"
	"errors"
	"fmt"

	"acoustid/model"

	"gorm.io/gorm"
)

// RecordingLink is a MusicBrainz recording linked to a track, with the
// number of submissions that support the link.
type RecordingLink struct {
	MBID    string
	Sources int
}

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	// ResolveGid returns the internal id of the track, or 0 if there is none.
	ResolveGid(ctx context.Context, gid string) (int64, error)
	LookupMBIDs(ctx context.Context, trackIDs []int64) (map[int64][]RecordingLink, error)
	LookupMetaIDs(ctx context.Context, trackIDs []int64) (map[int64][]int64, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a gorm backed TrackRepository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

func (r *gormTrackRepository) ResolveGid(ctx context.Context, gid string) (int64, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Select("id").
		Where("gid = ?", gid).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve track gid %s: %w", gid, err)
	}
	return track.ID, nil
}

// LookupMBIDs returns the enabled recording links of each track, ordered by MBID.
func (r *gormTrackRepository) LookupMBIDs(ctx context.Context, trackIDs []int64) (map[int64][]RecordingLink, error) {
	result := make(map[int64][]RecordingLink)
	if len(trackIDs) == 0 {
		return result, nil
	}

	var links []model.TrackMBID
	err := r.db.WithContext(ctx).
		Where("track_id IN ? AND disabled = ?", trackIDs, false).
		Order("track_id, mbid").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up track mbids: %w", err)
	}

	for _, link := range links {
		result[link.TrackID] = append(result[link.TrackID], RecordingLink{
			MBID:    link.MBID,
			Sources: link.SubmissionCount,
		})
	}
	return result, nil
}

// LookupMetaIDs returns the user metadata ids linked to each track.
func (r *gormTrackRepository) LookupMetaIDs(ctx context.Context, trackIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64)
	if len(trackIDs) == 0 {
		return result, nil
	}

	var links []model.TrackMeta
	err := r.db.WithContext(ctx).
		Where("track_id IN ?", trackIDs).
		Order("track_id, meta_id").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up track meta ids: %w", err)
	}

	for _, link := range links {
		result[link.TrackID] = append(result[link.TrackID], link.MetaID)
	}
	return result, nil
}
