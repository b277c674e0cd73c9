package lookup

import (
	"cmp"
	"slices"

	"acoustid/model"
)

// M2 builds the flat m2 view: one recording per id carrying every track it
// appears on, ordered by release, medium position and track position.
func (b *TreeBuilder) M2(rows []model.MetadataRow) []*Recording {
	recordings := NewOrderedMap[string, *Recording]()
	for i := range rows {
		row := &rows[i]
		if _, ok := recordings.Get(row.RecordingID); !ok {
			recordings.Set(row.RecordingID, &Recording{ID: row.RecordingID, Duration: row.RecordingDuration})
		}
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b model.MetadataRow) int {
		return cmp.Or(
			cmp.Compare(a.RecordingID, b.RecordingID),
			cmp.Compare(a.ReleaseID, b.ReleaseID),
			cmp.Compare(a.MediumPosition, b.MediumPosition),
			cmp.Compare(a.TrackPosition, b.TrackPosition),
		)
	})

	for _, row := range sorted {
		recording, _ := recordings.Get(row.RecordingID)
		artists := []model.Artist(row.TrackArtists)
		if artists == nil {
			artists = []model.Artist{}
		}
		recording.Tracks = append(recording.Tracks, &M2Track{
			Title:    row.TrackTitle,
			Duration: row.TrackDuration,
			Artists:  artists,
			Position: row.TrackPosition,
			Medium: M2Medium{
				TrackCount: row.MediumTrackCount,
				Position:   row.MediumPosition,
				Format:     row.MediumFormat,
				Release: M2Release{
					ID:    row.ReleaseID,
					Title: row.ReleaseTitle,
				},
			},
		})
	}
	return recordings.Values()
}
