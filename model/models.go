package model

// All returns every model managed by the migrate command.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Application{},
		&Track{},
		&TrackMBID{},
		&TrackMeta{},
		&Meta{},
		&MetadataRow{},
		&Submission{},
		&SubmissionResult{},
	}
}
