package model

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is a fingerprint waiting to be imported by the matcher.
// Optional columns are NULL when the client did not send them.
type Submission struct {
	ID                 int64                      `gorm:"primaryKey;autoIncrement"`
	CreatedAt          time.Time                  `gorm:"column:created;index"`
	Handled            bool                       `gorm:"not null;default:false"`
	AccountID          int64                      `gorm:"not null"`
	ApplicationID      int64                      `gorm:"not null"`
	ApplicationVersion *string                    `gorm:"size:40"`
	Fingerprint        datatypes.JSONSlice[int32] `gorm:"not null"`
	Duration           int                        `gorm:"not null"`
	Bitrate            *int
	Format             *string `gorm:"size:40"`
	MBID               *string `gorm:"column:mbid;size:36"`
	PUID               *string `gorm:"column:puid;size:36"`
	ForeignID          *string `gorm:"column:foreignid;size:255"`
	Track              *string `gorm:"size:255"`
	Artist             *string `gorm:"size:255"`
	Album              *string `gorm:"size:255"`
	AlbumArtist        *string `gorm:"size:255"`
	TrackNo            *int
	DiscNo             *int
	Year               *int
}

// TableName 指定表名
func (Submission) TableName() string {
	return "submission"
}

// SubmissionResult is written by the matcher once a submission has been imported.
type SubmissionResult struct {
	SubmissionID       int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt          time.Time `gorm:"column:created"`
	AccountID          int64     `gorm:"not null"`
	ApplicationID      int64     `gorm:"not null"`
	ApplicationVersion *string   `gorm:"size:40"`
	FingerprintID      int64     `gorm:"not null"`
	TrackID            int64     `gorm:"not null"`
	MetaID             *int64
	MBID               *string `gorm:"column:mbid;size:36"`
	PUID               *string `gorm:"column:puid;size:36"`
	ForeignID          *string `gorm:"column:foreignid;size:255"`
}

// TableName 指定表名
func (SubmissionResult) TableName() string {
	return "submission_result"
}
