package params

import (
	"context"
	"net/url"
	"strings"

	"acoustid/config"
	"acoustid/core/apierr"
	"acoustid/core/fingerprint"
)

// Metadata flags accepted in the meta parameter.
const (
	MetaRecordings      = "recordings"
	MetaRecordingIDs    = "recordingids"
	MetaReleases        = "releases"
	MetaReleaseIDs      = "releaseids"
	MetaReleaseGroups   = "releasegroups"
	MetaReleaseGroupIDs = "releasegroupids"
	MetaTracks          = "tracks"
	MetaCompress        = "compress"
	MetaUserMeta        = "usermeta"
	MetaSources         = "sources"
	MetaM2              = "m2"
)

// Meta is the set of requested metadata flags.
type Meta []string

// Has reports whether any of the flags was requested.
func (m Meta) Has(flags ...string) bool {
	for _, have := range m {
		for _, want := range flags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ParseMeta expands the legacy numeric shorthands.
func ParseMeta(s string) Meta {
	switch s {
	case "", "0":
		return nil
	case "1":
		return Meta{MetaRecordingIDs}
	case "2":
		return Meta{MetaM2}
	}
	return Meta(strings.Fields(s))
}

// LookupQuery is one fingerprint or track id to look up.
type LookupQuery struct {
	// Index is the batch suffix the query was sent with, "" if none.
	Index       string
	TrackGid    string
	Fingerprint []int32
	Duration    int
}

// LookupParams are the validated parameters of a lookup request.
type LookupParams struct {
	Client
	Meta            Meta
	MaxDurationDiff int
	Batch           bool
	Queries         []LookupQuery
}

// ParseLookup validates a lookup request.
func (p *Parser) ParseLookup(ctx context.Context, values url.Values) (*LookupParams, error) {
	client, err := p.ParseClient(ctx, values)
	if err != nil {
		return nil, err
	}

	params := &LookupParams{
		Client:          client,
		Meta:            ParseMeta(values.Get("meta")),
		MaxDurationDiff: config.FingerprintMaxLengthDiff,
	}
	if diff, ok := optionalInt(values, "maxdurationdiff"); ok {
		if diff < 1 || diff > p.maxDurationDiff {
			return nil, apierr.InvalidMaxDurationDiff("maxdurationdiff")
		}
		params.MaxDurationDiff = diff
	}
	if batch, ok := optionalInt(values, "batch"); ok && batch != 0 {
		params.Batch = true
	}

	groups := findGroups(values, "fingerprint", "trackid")
	if len(groups) == 0 {
		return nil, apierr.MissingParameter("fingerprint")
	}
	err = parseGroups(groups, func(g group) error {
		q, err := parseLookupQuery(values, g)
		if err != nil {
			return err
		}
		params.Queries = append(params.Queries, q)
		return nil
	}, func() int { return len(params.Queries) })
	if err != nil {
		return nil, err
	}
	return params, nil
}

func parseLookupQuery(values url.Values, g group) (LookupQuery, error) {
	q := LookupQuery{Index: g.index, TrackGid: values.Get(g.name("trackid"))}
	if q.TrackGid != "" {
		if !isUUID(q.TrackGid) {
			return q, apierr.InvalidUUID(g.name("trackid"))
		}
		return q, nil
	}

	duration, err := parseDuration(values, g.name("duration"))
	if err != nil {
		return q, err
	}
	q.Duration = duration

	fp := values.Get(g.name("fingerprint"))
	if fp == "" {
		return q, apierr.MissingParameter(g.name("fingerprint"))
	}
	q.Fingerprint, _, err = fingerprint.Decode(fp)
	if err != nil || len(q.Fingerprint) == 0 {
		return q, apierr.InvalidFingerprint()
	}
	return q, nil
}

// parseDuration requires a positive number of seconds. Zero counts as missing.
func parseDuration(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" || raw == "0" {
		return 0, apierr.MissingParameter(name)
	}
	duration, ok := optionalInt(values, name)
	if !ok || duration <= 0 {
		return 0, apierr.InvalidDuration(name)
	}
	return duration, nil
}
