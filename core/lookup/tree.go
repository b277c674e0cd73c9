package lookup

import (
	"acoustid/core/params"
	"acoustid/model"
)

// TreeBuilder turns flat metadata rows into the nested nodes selected by the
// meta flags of a request.
type TreeBuilder struct {
	meta params.Meta
}

// NewTreeBuilder creates a builder for the given flags.
func NewTreeBuilder(meta params.Meta) *TreeBuilder {
	return &TreeBuilder{meta: meta}
}

func (b *TreeBuilder) withReleaseGroups() bool {
	return b.meta.Has(params.MetaReleaseGroups, params.MetaReleaseGroupIDs)
}

func (b *TreeBuilder) withReleases() bool {
	return b.meta.Has(params.MetaReleases, params.MetaReleaseIDs)
}

func (b *TreeBuilder) compress() bool {
	return b.meta.Has(params.MetaCompress)
}

// Recordings groups rows by recording. Release groups or releases are nested
// below each recording when requested, release groups taking precedence.
func (b *TreeBuilder) Recordings(rows []model.MetadataRow) []*Recording {
	onlyID := b.meta.Has(params.MetaRecordingIDs)
	groups := groupRows(rows,
		func(r *model.MetadataRow) string { return r.RecordingID },
		func(r *model.MetadataRow) *Recording { return extractRecording(r, onlyID) })

	recordings := make([]*Recording, 0, len(groups))
	for _, g := range groups {
		recording := g.node
		switch {
		case b.withReleaseGroups():
			recording.ReleaseGroups = b.ReleaseGroups(g.rows)
		case b.withReleases():
			recording.Releases = b.Releases(g.rows)
		}
		if b.compress() {
			compressRecording(recording)
		}
		recordings = append(recordings, recording)
	}
	return recordings
}

// ReleaseGroups groups rows by release group, nesting releases when requested.
func (b *TreeBuilder) ReleaseGroups(rows []model.MetadataRow) []*ReleaseGroup {
	onlyID := b.meta.Has(params.MetaReleaseGroupIDs)
	groups := groupRows(rows,
		func(r *model.MetadataRow) string { return r.ReleaseGroupID },
		func(r *model.MetadataRow) *ReleaseGroup { return extractReleaseGroup(r, onlyID) })

	releaseGroups := make([]*ReleaseGroup, 0, len(groups))
	for _, g := range groups {
		releaseGroup := g.node
		if b.withReleases() {
			releaseGroup.Releases = b.Releases(g.rows)
			if b.compress() {
				compressReleaseGroup(releaseGroup)
			}
		}
		releaseGroups = append(releaseGroups, releaseGroup)
	}
	return releaseGroups
}

// Releases groups rows by release, nesting mediums and tracks when requested.
func (b *TreeBuilder) Releases(rows []model.MetadataRow) []*Release {
	onlyID := b.meta.Has(params.MetaReleaseIDs)
	groups := groupRows(rows,
		func(r *model.MetadataRow) string { return r.ReleaseID },
		func(r *model.MetadataRow) *Release { return extractRelease(r, onlyID) })

	releases := make([]*Release, 0, len(groups))
	for _, g := range groups {
		release := g.node
		if b.meta.Has(params.MetaTracks) {
			release.Mediums = mediums(g.rows)
			if b.compress() {
				compressTracks(release, release.Artists, nil)
			}
		}
		releases = append(releases, release)
	}
	return releases
}

func mediums(rows []model.MetadataRow) []*Medium {
	groups := groupRows(rows,
		func(r *model.MetadataRow) int { return r.MediumPosition },
		extractMedium)

	out := make([]*Medium, 0, len(groups))
	for _, g := range groups {
		medium := g.node
		tracks := groupRows(g.rows,
			func(r *model.MetadataRow) string { return r.TrackID },
			extractTrack)
		for _, t := range tracks {
			medium.Tracks = append(medium.Tracks, t.node)
		}
		out = append(out, medium)
	}
	return out
}

func extractRecording(r *model.MetadataRow, onlyID bool) *Recording {
	recording := &Recording{ID: r.RecordingID}
	if onlyID {
		return recording
	}
	recording.Title = strPtr(r.RecordingTitle)
	recording.Duration = r.RecordingDuration
	recording.Artists = r.RecordingArtists
	return recording
}

func extractReleaseGroup(r *model.MetadataRow, onlyID bool) *ReleaseGroup {
	releaseGroup := &ReleaseGroup{ID: r.ReleaseGroupID}
	if onlyID {
		return releaseGroup
	}
	releaseGroup.Title = strPtr(r.ReleaseGroupTitle)
	releaseGroup.Type = r.ReleaseGroupPrimaryType
	releaseGroup.SecondaryTypes = r.ReleaseGroupSecondaryTypes
	releaseGroup.Artists = r.ReleaseGroupArtists
	return releaseGroup
}

func extractRelease(r *model.MetadataRow, onlyID bool) *Release {
	release := &Release{ID: r.ReleaseID}
	if onlyID {
		return release
	}
	release.Title = strPtr(r.ReleaseTitle)
	release.MediumCount = r.ReleaseMediumCount
	release.TrackCount = r.ReleaseTrackCount
	release.Artists = r.ReleaseArtists
	for _, e := range r.ReleaseEvents {
		event := ReleaseEvent{Country: e.Country}
		if e.Year != 0 || e.Month != 0 || e.Day != 0 {
			event.Date = &Date{Year: e.Year, Month: e.Month, Day: e.Day}
		}
		release.ReleaseEvents = append(release.ReleaseEvents, event)
	}
	if len(release.ReleaseEvents) > 0 {
		release.Country = release.ReleaseEvents[0].Country
		release.Date = release.ReleaseEvents[0].Date
	}
	return release
}

func extractMedium(r *model.MetadataRow) *Medium {
	return &Medium{
		Position:   r.MediumPosition,
		TrackCount: r.MediumTrackCount,
		Format:     r.MediumFormat,
		Title:      r.MediumTitle,
	}
}

func extractTrack(r *model.MetadataRow) *Track {
	return &Track{
		ID:       r.TrackID,
		Position: r.TrackPosition,
		Title:    strPtr(r.TrackTitle),
		Artists:  r.TrackArtists,
	}
}
