package params

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"acoustid/core/apierr"
	"acoustid/core/fingerprint"
)

// MaxSubmissionDuration is the longest accepted duration, in seconds.
const MaxSubmissionDuration = 0x7fff

// Submission is one fingerprint submitted by a user. Zero values mean the
// client did not send the field.
type Submission struct {
	Index       string
	Fingerprint []int32
	Duration    int
	Bitrate     int
	Format      string
	MBID        string
	PUID        string
	ForeignID   string
	Track       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNo     int
	DiscNo      int
	Year        int
}

// SubmitParams are the validated parameters of a submit request.
type SubmitParams struct {
	Client
	AccountID   int64
	Wait        int
	Submissions []Submission
}

// ParseSubmit validates a submit request and resolves the user API key.
func (p *Parser) ParseSubmit(ctx context.Context, values url.Values) (*SubmitParams, error) {
	client, err := p.ParseClient(ctx, values)
	if err != nil {
		return nil, err
	}

	userKey := values.Get("user")
	if userKey == "" {
		return nil, apierr.MissingParameter("user")
	}
	accountID, err := p.accounts.FindIDByAPIKey(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if accountID == 0 {
		return nil, apierr.InvalidUserAPIKey()
	}

	params := &SubmitParams{Client: client, AccountID: accountID}
	params.Wait, _ = optionalInt(values, "wait")

	groups := findGroups(values, "fingerprint")
	if len(groups) == 0 {
		return nil, apierr.MissingParameter("fingerprint")
	}
	err = parseGroups(groups, func(g group) error {
		s, err := parseSubmission(values, g)
		if err != nil {
			return err
		}
		params.Submissions = append(params.Submissions, s)
		return nil
	}, func() int { return len(params.Submissions) })
	if err != nil {
		return nil, err
	}
	return params, nil
}

func parseSubmission(values url.Values, g group) (Submission, error) {
	s := Submission{Index: g.index}

	s.PUID = values.Get(g.name("puid"))
	if s.PUID != "" && !isUUID(s.PUID) {
		return s, apierr.InvalidUUID(g.name("puid"))
	}
	s.ForeignID = values.Get(g.name("foreignid"))
	if s.ForeignID != "" && !isForeignID(s.ForeignID) {
		return s, apierr.InvalidForeignID(g.name("foreignid"))
	}
	s.MBID = values.Get(g.name("mbid"))
	if s.MBID != "" && !isUUID(s.MBID) {
		return s, apierr.InvalidUUID(g.name("mbid"))
	}

	name := g.name("duration")
	if strings.TrimSpace(values.Get(name)) == "" {
		return s, apierr.MissingParameter(name)
	}
	duration, ok := optionalInt(values, name)
	if !ok || duration <= 0 || duration > MaxSubmissionDuration {
		return s, apierr.InvalidDuration(name)
	}
	s.Duration = duration
	s.Format = values.Get(g.name("fileformat"))

	fp := values.Get(g.name("fingerprint"))
	if fp == "" {
		return s, apierr.MissingParameter(g.name("fingerprint"))
	}
	decoded, _, err := fingerprint.Decode(fp)
	if err != nil || len(decoded) == 0 {
		return s, apierr.InvalidFingerprint()
	}
	s.Fingerprint = decoded

	s.Bitrate, _ = optionalInt(values, g.name("bitrate"))
	if s.Bitrate < 0 {
		return s, apierr.InvalidBitrate(g.name("bitrate"))
	}

	s.Track = values.Get(g.name("track"))
	s.Artist = values.Get(g.name("artist"))
	s.Album = values.Get(g.name("album"))
	s.AlbumArtist = values.Get(g.name("albumartist"))
	s.TrackNo, _ = optionalInt(values, g.name("trackno"))
	s.DiscNo, _ = optionalInt(values, g.name("discno"))
	s.Year, _ = optionalInt(values, g.name("year"))
	return s, nil
}
