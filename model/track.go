package model

import "time"

// Track is an AcoustID: the internal id is never exposed, clients only see Gid.
type Track struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	Gid       string    `json:"id" gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "track"
}

// TrackMBID links a track to a MusicBrainz recording.
type TrackMBID struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	TrackID         int64  `gorm:"index;not null"`
	MBID            string `gorm:"column:mbid;size:36;index;not null"`
	SubmissionCount int    `gorm:"not null;default:0"`
	Disabled        bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time
}

// TableName 指定表名
func (TrackMBID) TableName() string {
	return "track_mbid"
}

// TrackMeta links a track to user-submitted metadata.
type TrackMeta struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	TrackID         int64 `gorm:"index;not null"`
	MetaID          int64 `gorm:"index;not null"`
	SubmissionCount int   `gorm:"not null;default:0"`
	CreatedAt       time.Time
}

// TableName 指定表名
func (TrackMeta) TableName() string {
	return "track_meta"
}

// Meta is free-form metadata submitted together with a fingerprint.
type Meta struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Track       *string `gorm:"size:255"`
	Artist      *string `gorm:"size:255"`
	Album       *string `gorm:"size:255"`
	AlbumArtist *string `gorm:"size:255"`
	TrackNo     *int
	DiscNo      *int
	Year        *int
	CreatedAt   time.Time
}

// TableName 指定表名
func (Meta) TableName() string {
	return "meta"
}
