package lookup

import (
	"strconv"

	"acoustid/model"
)

// userMetaRows presents user submitted metadata as metadata rows. The ids are
// synthetic and are removed again by anonymizeRecording.
func userMetaRows(metas []model.Meta) []model.MetadataRow {
	rows := make([]model.MetadataRow, 0, len(metas))
	for _, m := range metas {
		id := "meta:" + strconv.FormatInt(m.ID, 10)
		row := model.MetadataRow{
			RecordingID:    id,
			RecordingTitle: deref(m.Track),
			TrackID:        id,
			TrackTitle:     deref(m.Track),
		}
		if artist := deref(m.Artist); artist != "" {
			row.RecordingArtists = []model.Artist{{Name: artist}}
			row.TrackArtists = row.RecordingArtists
		}
		if album := deref(m.Album); album != "" {
			row.ReleaseGroupID = id
			row.ReleaseGroupTitle = album
			row.ReleaseID = id
			row.ReleaseTitle = album
		}
		if albumArtist := deref(m.AlbumArtist); albumArtist != "" {
			row.ReleaseGroupArtists = []model.Artist{{Name: albumArtist}}
			row.ReleaseArtists = row.ReleaseGroupArtists
		}
		if m.Year != nil && *m.Year > 0 {
			row.ReleaseEvents = []model.ReleaseEvent{{Year: *m.Year}}
		}
		if m.DiscNo != nil {
			row.MediumPosition = *m.DiscNo
		}
		if m.TrackNo != nil {
			row.TrackPosition = *m.TrackNo
		}
		rows = append(rows, row)
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// anonymizeRecording strips ids and empty titles at every level and drops
// the children left without any field. It reports whether the recording
// itself ended up empty.
func anonymizeRecording(r *Recording) bool {
	r.ID = ""
	r.Title = nonEmpty(r.Title)
	r.ReleaseGroups = keep(r.ReleaseGroups, anonymizeReleaseGroup)
	r.Releases = keep(r.Releases, anonymizeRelease)
	return len(r.Artists) == 0 && r.Duration == 0 && len(r.ReleaseGroups) == 0 &&
		len(r.Releases) == 0 && r.Sources == nil && r.Title == nil && len(r.Tracks) == 0
}

func anonymizeReleaseGroup(rg *ReleaseGroup) bool {
	rg.ID = ""
	rg.Title = nonEmpty(rg.Title)
	rg.Releases = keep(rg.Releases, anonymizeRelease)
	return len(rg.Artists) == 0 && len(rg.Releases) == 0 && len(rg.SecondaryTypes) == 0 &&
		rg.Title == nil && rg.Type == ""
}

func anonymizeRelease(r *Release) bool {
	r.ID = ""
	r.Title = nonEmpty(r.Title)
	for _, medium := range r.Mediums {
		for _, track := range medium.Tracks {
			track.ID = ""
			track.Title = nonEmpty(track.Title)
		}
	}
	return len(r.Artists) == 0 && r.Country == "" && r.Date == nil && r.MediumCount == 0 &&
		len(r.Mediums) == 0 && len(r.ReleaseEvents) == 0 && r.Title == nil && r.TrackCount == 0
}

// keep anonymizes every node and returns those that are not empty.
func keep[N any](nodes []N, anonymize func(N) bool) []N {
	var out []N
	for _, n := range nodes {
		if !anonymize(n) {
			out = append(out, n)
		}
	}
	return out
}

func nonEmpty(s *string) *string {
	if s != nil && *s == "" {
		return nil
	}
	return s
}
