package lookup

import "acoustid/model"

// Node fields are declared in alphabetical order of their JSON names so the
// encoded objects have sorted keys. Optional fields are omitted when empty.

// Recording is a MusicBrainz recording, or a user metadata entry presented as one.
type Recording struct {
	Artists       []model.Artist  `json:"artists,omitempty"`
	Duration      int             `json:"duration,omitempty"`
	ID            string          `json:"id,omitempty"`
	ReleaseGroups []*ReleaseGroup `json:"releasegroups,omitempty"`
	Releases      []*Release      `json:"releases,omitempty"`
	Sources       *int            `json:"sources,omitempty"`
	Title         *string         `json:"title,omitempty"`
	Tracks        []*M2Track      `json:"tracks,omitempty"`
}

// ReleaseGroup groups the releases of one album, single, etc.
type ReleaseGroup struct {
	Artists        []model.Artist `json:"artists,omitempty"`
	ID             string         `json:"id,omitempty"`
	Releases       []*Release     `json:"releases,omitempty"`
	SecondaryTypes []string       `json:"secondarytypes,omitempty"`
	Title          *string        `json:"title,omitempty"`
	Type           string         `json:"type,omitempty"`
}

// Release carries the country and date of its first release event at the
// top level as well.
type Release struct {
	Artists       []model.Artist `json:"artists,omitempty"`
	Country       string         `json:"country,omitempty"`
	Date          *Date          `json:"date,omitempty"`
	ID            string         `json:"id,omitempty"`
	MediumCount   int            `json:"medium_count,omitempty"`
	Mediums       []*Medium      `json:"mediums,omitempty"`
	ReleaseEvents []ReleaseEvent `json:"releaseevents,omitempty"`
	Title         *string        `json:"title,omitempty"`
	TrackCount    int            `json:"track_count,omitempty"`
}

// ReleaseEvent is where and when a release was published.
type ReleaseEvent struct {
	Country string `json:"country,omitempty"`
	Date    *Date  `json:"date,omitempty"`
}

// Date is a partial date; unknown parts are zero.
type Date struct {
	Day   int `json:"day,omitempty"`
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`
}

// Medium is one disc (or other carrier) of a release.
type Medium struct {
	Format     string   `json:"format,omitempty"`
	Position   int      `json:"position"`
	Title      string   `json:"title,omitempty"`
	TrackCount int      `json:"track_count"`
	Tracks     []*Track `json:"tracks,omitempty"`
}

// Track is a recording's appearance on a medium.
type Track struct {
	Artists  []model.Artist `json:"artists,omitempty"`
	ID       string         `json:"id,omitempty"`
	Position int            `json:"position"`
	Title    *string        `json:"title,omitempty"`
}

// M2Track is a track entry of the flat m2 view. Only the medium format is optional.
type M2Track struct {
	Artists  []model.Artist `json:"artists"`
	Duration int            `json:"duration"`
	Medium   M2Medium       `json:"medium"`
	Position int            `json:"position"`
	Title    string         `json:"title"`
}

// M2Medium is the medium of an m2 track.
type M2Medium struct {
	Format     string    `json:"format,omitempty"`
	Position   int       `json:"position"`
	Release    M2Release `json:"release"`
	TrackCount int       `json:"track_count"`
}

// M2Release identifies the release of an m2 medium.
type M2Release struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func strPtr(s string) *string {
	return &s
}

func sameString(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}
