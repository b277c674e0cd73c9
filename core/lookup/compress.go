package lookup

import "acoustid/model"

// Compression removes fields a client can take from an ancestor. Children are
// always compressed before their parents, so comparisons see the ancestor's
// full values. Track artists are compared with the release and track titles
// with the recording.

func compressRecording(recording *Recording) {
	for _, releaseGroup := range recording.ReleaseGroups {
		for _, release := range releaseGroup.Releases {
			compressTracks(release, nil, recording.Title)
		}
	}
	for _, release := range recording.Releases {
		compressTracks(release, nil, recording.Title)
	}

	for _, release := range recording.Releases {
		compressRelease(release, recording.Title, recording.Artists)
	}
	for _, releaseGroup := range recording.ReleaseGroups {
		if sameString(releaseGroup.Title, recording.Title) {
			releaseGroup.Title = nil
		}
		if sameArtists(releaseGroup.Artists, recording.Artists) {
			releaseGroup.Artists = nil
		}
	}
}

func compressReleaseGroup(releaseGroup *ReleaseGroup) {
	for _, release := range releaseGroup.Releases {
		compressRelease(release, releaseGroup.Title, releaseGroup.Artists)
	}
}

func compressRelease(release *Release, title *string, artists []model.Artist) {
	if sameString(release.Title, title) {
		release.Title = nil
	}
	if sameArtists(release.Artists, artists) {
		release.Artists = nil
	}
}

func compressTracks(release *Release, artists []model.Artist, title *string) {
	for _, medium := range release.Mediums {
		for _, track := range medium.Tracks {
			if sameArtists(track.Artists, artists) {
				track.Artists = nil
			}
			if sameString(track.Title, title) {
				track.Title = nil
			}
		}
	}
}

func sameArtists(a, b []model.Artist) bool {
	return len(a) > 0 && model.ArtistsEqual(a, b)
}
