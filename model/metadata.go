package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Artist is one entry of an artist credit.
// A credit known only by name (user-submitted metadata) is encoded as a bare string.
type Artist struct {
	ID         string `json:"id,omitempty"`
	JoinPhrase string `json:"joinphrase,omitempty"`
	Name       string `json:"name"`
}

// MarshalJSON 仅有名字时输出字符串
func (a Artist) MarshalJSON() ([]byte, error) {
	if a.ID == "" && a.JoinPhrase == "" {
		return marshal(a.Name)
	}
	type artist Artist
	return marshal(artist(a))
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON accepts both the object and the bare string form.
func (a *Artist) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Artist{Name: name}
		return nil
	}
	type artist Artist
	var v artist
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid artist credit: %w", err)
	}
	*a = Artist(v)
	return nil
}

// ArtistsEqual reports whether two artist credits are identical.
func ArtistsEqual(a, b []Artist) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReleaseEvent is a release country/date pair. Zero values mean unknown.
type ReleaseEvent struct {
	Country string `json:"country,omitempty"`
	Year    int    `json:"year,omitempty"`
	Month   int    `json:"month,omitempty"`
	Day     int    `json:"day,omitempty"`
}

// MetadataRow is one denormalized row of MusicBrainz metadata: a recording
// together with one track it appears on, that track's medium, release and
// release group. Rows sharing a recording differ only in the deeper levels.
type MetadataRow struct {
	ID int64 `json:"-" gorm:"primaryKey;autoIncrement"`

	RecordingID       string                      `gorm:"size:36;index;not null"`
	RecordingTitle    string                      `gorm:"size:1024"`
	RecordingDuration int                         `gorm:"not null;default:0"`
	RecordingArtists  datatypes.JSONSlice[Artist] `gorm:"type:json"`

	ReleaseGroupID             string                      `gorm:"size:36;index"`
	ReleaseGroupTitle          string                      `gorm:"size:1024"`
	ReleaseGroupPrimaryType    string                      `gorm:"size:40"`
	ReleaseGroupSecondaryTypes datatypes.JSONSlice[string] `gorm:"type:json"`
	ReleaseGroupArtists        datatypes.JSONSlice[Artist] `gorm:"type:json"`

	ReleaseID          string                            `gorm:"size:36;index"`
	ReleaseTitle       string                            `gorm:"size:1024"`
	ReleaseMediumCount int                               `gorm:"not null;default:0"`
	ReleaseTrackCount  int                               `gorm:"not null;default:0"`
	ReleaseArtists     datatypes.JSONSlice[Artist]       `gorm:"type:json"`
	ReleaseEvents      datatypes.JSONSlice[ReleaseEvent] `gorm:"type:json"`

	MediumPosition   int    `gorm:"not null;default:0"`
	MediumTrackCount int    `gorm:"not null;default:0"`
	MediumFormat     string `gorm:"size:255"`
	MediumTitle      string `gorm:"size:1024"`

	TrackID       string                      `gorm:"size:36"`
	TrackPosition int                         `gorm:"not null;default:0"`
	TrackTitle    string                      `gorm:"size:1024"`
	TrackArtists  datatypes.JSONSlice[Artist] `gorm:"type:json"`
	TrackDuration int                         `gorm:"not null;default:0"`
}

// TableName 指定表名
func (MetadataRow) TableName() string {
	return "recording_metadata"
}
