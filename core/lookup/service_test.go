package lookup

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"acoustid/core/apierr"
	"acoustid/core/fingerprint"
	"acoustid/core/params"
	"acoustid/db"
	"acoustid/model"
	"acoustid/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeSearcher struct {
	byDuration map[int][]fingerprint.Match
	err        error
}

func (f *fakeSearcher) Search(_ context.Context, _ []int32, duration, _ int) ([]fingerprint.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDuration[duration], nil
}

type fakeStats struct {
	mu      sync.Mutex
	hits    []bool
	agents  []string
	timings int
}

func (f *fakeStats) CountLookup(_ context.Context, _ int64, hit bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, hit)
	return nil
}

func (f *fakeStats) CountUserAgent(_ context.Context, _ int64, userAgent, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append(f.agents, userAgent)
	return nil
}

func (f *fakeStats) AddLookupTime(context.Context, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timings++
	return nil
}

// countingMetadata records every metadata query passed to the wrapped repository.
type countingMetadata struct {
	repository.MetadataRepository
	mu    sync.Mutex
	calls [][]string
}

func (c *countingMetadata) FindByRecordingIDs(ctx context.Context, mbids []string, withReleases bool) ([]model.MetadataRow, error) {
	c.mu.Lock()
	c.calls = append(c.calls, mbids)
	c.mu.Unlock()
	return c.MetadataRepository.FindByRecordingIDs(ctx, mbids, withReleases)
}

type fixture struct {
	gdb      *gorm.DB
	tracks   repository.TrackRepository
	metadata repository.MetadataRepository
	metas    repository.MetaRepository
	track    *model.Track
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "lookup.sqlite3")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		gdb:      gdb,
		tracks:   repository.NewGormTrackRepository(gdb),
		metadata: repository.NewGormMetadataRepository(gdb),
		metas:    repository.NewGormMetaRepository(gdb),
		track:    &model.Track{Gid: "9ff43b6a-4f16-427c-93c2-92307ca505e0"},
	}
	rows := fixtureRows()
	require.NoError(t, gdb.Create(f.track).Error)
	require.NoError(t, gdb.Create(&model.TrackMBID{TrackID: f.track.ID, MBID: "rec1", SubmissionCount: 4}).Error)
	require.NoError(t, gdb.Create(&rows).Error)
	return f
}

func (f *fixture) service(searcher fingerprint.Searcher, stats Stats) *Service {
	return NewService(searcher, f.tracks, f.metadata, f.metas, stats, 2)
}

func lookupParams(meta params.Meta, queries ...params.LookupQuery) *params.LookupParams {
	return &params.LookupParams{
		Client:          params.Client{ApplicationID: 1},
		Meta:            meta,
		MaxDurationDiff: 7,
		Queries:         queries,
	}
}

func TestLookupByTrackID(t *testing.T) {
	f := setupFixture(t)
	stats := &fakeStats{}
	svc := f.service(&fakeSearcher{}, stats)

	resp, err := svc.Lookup(context.Background(),
		lookupParams(params.Meta{params.MetaRecordings}, params.LookupQuery{TrackGid: f.track.Gid}), "curl", "127.0.0.1")
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{
		"id":"9ff43b6a-4f16-427c-93c2-92307ca505e0",
		"score":1,
		"recordings":[{"id":"rec1","title":"Song","duration":215,"artists":[{"id":"a1","name":"Artist A"}]}]
	}]}`, string(data))

	assert.Equal(t, []bool{true}, stats.hits)
	assert.Equal(t, []string{"curl"}, stats.agents)
	assert.Equal(t, 1, stats.timings)
}

func TestLookupUnknownTrackID(t *testing.T) {
	f := setupFixture(t)
	resp, err := f.service(&fakeSearcher{}, nil).Lookup(context.Background(),
		lookupParams(params.Meta{params.MetaRecordings}, params.LookupQuery{TrackGid: "00000000-0000-0000-0000-000000000000"}), "", "")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", resp.Results[0].ID)
	assert.Empty(t, resp.Results[0].Recordings)
}

func TestLookupSources(t *testing.T) {
	f := setupFixture(t)
	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		200: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.9}},
	}}
	resp, err := f.service(searcher, nil).Lookup(context.Background(),
		lookupParams(params.Meta{params.MetaRecordingIDs, params.MetaSources}, params.LookupQuery{Fingerprint: []int32{1}, Duration: 200}), "", "")
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":"9ff43b6a-4f16-427c-93c2-92307ca505e0","score":0.9,"recordings":[{"id":"rec1","sources":4}]}]}`, string(data))
}

func TestLookupReleasesView(t *testing.T) {
	f := setupFixture(t)
	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		200: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.9}},
	}}
	resp, err := f.service(searcher, nil).Lookup(context.Background(),
		lookupParams(params.Meta{params.MetaReleaseIDs}, params.LookupQuery{Fingerprint: []int32{1}, Duration: 200}), "", "")
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	releases := resp.Results[0].Releases
	require.Len(t, releases, 2)
	assert.Equal(t, "rel1", releases[0].ID)
	assert.Nil(t, releases[0].Title)
	assert.Empty(t, resp.Results[0].Recordings)
}

func TestLookupUserMeta(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	other := &model.Track{Gid: "c7a1f3b2-0000-4000-8000-000000000001"}
	require.NoError(t, f.gdb.Create(other).Error)
	meta := &model.Meta{Track: strPtr("Untitled"), Artist: strPtr("Someone")}
	require.NoError(t, f.gdb.Create(meta).Error)
	require.NoError(t, f.gdb.Create(&model.TrackMeta{TrackID: other.ID, MetaID: meta.ID}).Error)

	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		100: {{TrackID: other.ID, TrackGid: other.Gid, Score: 0.8}},
	}}
	resp, err := f.service(searcher, nil).Lookup(ctx,
		lookupParams(params.Meta{params.MetaRecordings, params.MetaUserMeta}, params.LookupQuery{Fingerprint: []int32{1}, Duration: 100}), "", "")
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":"c7a1f3b2-0000-4000-8000-000000000001","score":0.8,"recordings":[{"title":"Untitled","artists":["Someone"]}]}]}`, string(data))
}

func TestLookupBatchKeepsQueryOrder(t *testing.T) {
	f := setupFixture(t)
	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		100: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.9}},
		200: nil,
		300: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.7}},
	}}
	stats := &fakeStats{}
	p := lookupParams(params.Meta{params.MetaRecordingIDs},
		params.LookupQuery{Index: "0", Fingerprint: []int32{1}, Duration: 100},
		params.LookupQuery{Index: "1", Fingerprint: []int32{1}, Duration: 200},
		params.LookupQuery{Index: "2", Fingerprint: []int32{1}, Duration: 300},
	)
	p.Batch = true

	resp, err := f.service(searcher, stats).Lookup(context.Background(), p, "", "")
	require.NoError(t, err)

	require.Len(t, resp.Fingerprints, 3)
	assert.Equal(t, "0", resp.Fingerprints[0].Index)
	assert.Equal(t, "rec1", resp.Fingerprints[0].Results[0].Recordings[0].ID)
	assert.Empty(t, resp.Fingerprints[1].Results)
	assert.Equal(t, Score(0.7), resp.Fingerprints[2].Results[0].Score)
	assert.Equal(t, "rec1", resp.Fingerprints[2].Results[0].Recordings[0].ID)
	assert.Equal(t, []bool{true, false, true}, stats.hits)
}

func TestLookupSearchTimeout(t *testing.T) {
	f := setupFixture(t)
	_, err := f.service(&fakeSearcher{err: fingerprint.ErrSearchTimeout}, nil).Lookup(context.Background(),
		lookupParams(nil, params.LookupQuery{Fingerprint: []int32{1}, Duration: 100}), "", "")

	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, 503, apiErr.Status)
}

func TestLookupLoadsMetadataOnce(t *testing.T) {
	f := setupFixture(t)
	other := &model.Track{Gid: "c7a1f3b2-0000-4000-8000-000000000002"}
	require.NoError(t, f.gdb.Create(other).Error)
	require.NoError(t, f.gdb.Create(&model.TrackMBID{TrackID: other.ID, MBID: "rec2", SubmissionCount: 1}).Error)

	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		100: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.9}},
		200: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.8}, {TrackID: other.ID, TrackGid: other.Gid, Score: 0.6}},
		300: {{TrackID: other.ID, TrackGid: other.Gid, Score: 0.7}},
	}}
	metadata := &countingMetadata{MetadataRepository: f.metadata}
	svc := NewService(searcher, f.tracks, metadata, f.metas, nil, 2)

	p := lookupParams(params.Meta{params.MetaRecordings},
		params.LookupQuery{Index: "0", Fingerprint: []int32{1}, Duration: 100},
		params.LookupQuery{Index: "1", Fingerprint: []int32{1}, Duration: 200},
		params.LookupQuery{Index: "2", Fingerprint: []int32{1}, Duration: 300},
	)
	p.Batch = true
	resp, err := svc.Lookup(context.Background(), p, "", "")
	require.NoError(t, err)

	require.Len(t, metadata.calls, 1)
	assert.Equal(t, []string{"rec1", "rec2"}, metadata.calls[0])

	require.Len(t, resp.Fingerprints, 3)
	assert.Equal(t, "Song", *resp.Fingerprints[0].Results[0].Recordings[0].Title)
	require.Len(t, resp.Fingerprints[1].Results, 2)
	assert.Equal(t, "rec1", resp.Fingerprints[1].Results[0].Recordings[0].ID)
	assert.Equal(t, "rec2", resp.Fingerprints[1].Results[1].Recordings[0].ID)
	assert.Equal(t, "rec2", resp.Fingerprints[2].Results[0].Recordings[0].ID)
}

func TestLookupReleaseGroupsView(t *testing.T) {
	f := setupFixture(t)
	searcher := &fakeSearcher{byDuration: map[int][]fingerprint.Match{
		200: {{TrackID: f.track.ID, TrackGid: f.track.Gid, Score: 0.9}},
	}}
	svc := f.service(searcher, nil)
	query := params.LookupQuery{Fingerprint: []int32{1}, Duration: 200}

	resp, err := svc.Lookup(context.Background(), lookupParams(params.Meta{params.MetaReleaseGroupIDs}, query), "", "")
	require.NoError(t, err)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":"9ff43b6a-4f16-427c-93c2-92307ca505e0","score":0.9,"releasegroups":[{"id":"rg1"}]}]}`, string(data))

	meta := params.Meta{params.MetaReleaseGroups, params.MetaReleases, params.MetaCompress}
	resp, err = svc.Lookup(context.Background(), lookupParams(meta, query), "", "")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Results[0].Recordings)

	data, err = json.Marshal(resp.Results[0].ReleaseGroups)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id":"rg1",
		"title":"Album",
		"type":"Album",
		"artists":[{"id":"a1","name":"Artist A"}],
		"releases":[
			{"id":"rel1","country":"GB","date":{"year":2001,"month":2,"day":3},
			 "releaseevents":[{"country":"GB","date":{"year":2001,"month":2,"day":3}}],
			 "medium_count":1,"track_count":10},
			{"id":"rel2","title":"Album (deluxe)","medium_count":1,"track_count":10}
		]
	}]`, string(data))
}
