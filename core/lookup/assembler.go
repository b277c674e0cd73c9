package lookup

import (
	"context"
	"strconv"

	"acoustid/core/format"
	"acoustid/core/params"
	"acoustid/model"
	"acoustid/repository"
)

// TrackMetadata is the metadata copied into every result of one track.
type TrackMetadata struct {
	Recordings    []*Recording
	ReleaseGroups []*ReleaseGroup
	Releases      []*Release
}

// Assembler loads and builds the metadata of matched tracks. Each request
// costs one metadata query regardless of how many tracks matched.
type Assembler struct {
	tracks   repository.TrackRepository
	metadata repository.MetadataRepository
	metas    repository.MetaRepository
}

// NewAssembler 创建元数据组装器
func NewAssembler(tracks repository.TrackRepository, metadata repository.MetadataRepository, metas repository.MetaRepository) *Assembler {
	return &Assembler{tracks: tracks, metadata: metadata, metas: metas}
}

// Metadata builds the view selected by meta for each of trackIDs. The m2
// view wins over recordings, recordings over release groups and release
// groups over releases. Nothing is loaded when no view is selected.
func (a *Assembler) Metadata(ctx context.Context, meta params.Meta, trackIDs []int64) (map[int64]*TrackMetadata, error) {
	b := NewTreeBuilder(meta)
	switch {
	case meta.Has(params.MetaM2):
		return a.m2(ctx, b, trackIDs)
	case meta.Has(params.MetaRecordings, params.MetaRecordingIDs):
		return a.recordings(ctx, b, trackIDs)
	case b.withReleaseGroups():
		return a.perTrack(ctx, trackIDs, func(rows []model.MetadataRow) *TrackMetadata {
			return &TrackMetadata{ReleaseGroups: b.ReleaseGroups(rows)}
		})
	case b.withReleases():
		return a.perTrack(ctx, trackIDs, func(rows []model.MetadataRow) *TrackMetadata {
			return &TrackMetadata{Releases: b.Releases(rows)}
		})
	}
	return map[int64]*TrackMetadata{}, nil
}

// links returns the recording links of the tracks and every linked MBID once.
func (a *Assembler) links(ctx context.Context, trackIDs []int64) (map[int64][]repository.RecordingLink, []string, error) {
	links, err := a.tracks.LookupMBIDs(ctx, trackIDs)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool)
	var mbids []string
	for _, id := range trackIDs {
		for _, link := range links[id] {
			if !seen[link.MBID] {
				seen[link.MBID] = true
				mbids = append(mbids, link.MBID)
			}
		}
	}
	return links, mbids, nil
}

func (a *Assembler) recordings(ctx context.Context, b *TreeBuilder, trackIDs []int64) (map[int64]*TrackMetadata, error) {
	links, mbids, err := a.links(ctx, trackIDs)
	if err != nil {
		return nil, err
	}
	rows, err := a.metadata.FindByRecordingIDs(ctx, mbids, b.withReleases() || b.withReleaseGroups())
	if err != nil {
		return nil, err
	}
	built := make(map[string]*Recording)
	for _, recording := range b.Recordings(rows) {
		built[recording.ID] = recording
	}

	withSources := b.meta.Has(params.MetaSources)
	out := make(map[int64]*TrackMetadata, len(trackIDs))
	for _, id := range trackIDs {
		md := &TrackMetadata{}
		for _, link := range links[id] {
			recording := &Recording{ID: link.MBID}
			if r, ok := built[link.MBID]; ok {
				c := *r
				recording = &c
			}
			if withSources {
				sources := link.Sources
				recording.Sources = &sources
			}
			md.Recordings = append(md.Recordings, recording)
		}
		out[id] = md
	}

	if b.meta.Has(params.MetaUserMeta) && len(rows) == 0 {
		if err := a.userMeta(ctx, b, trackIDs, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// userMeta appends anonymized recordings built from user submitted metadata.
func (a *Assembler) userMeta(ctx context.Context, b *TreeBuilder, trackIDs []int64, out map[int64]*TrackMetadata) error {
	metaIDs, err := a.tracks.LookupMetaIDs(ctx, trackIDs)
	if err != nil {
		return err
	}
	var ids []int64
	seen := make(map[int64]bool)
	for _, id := range trackIDs {
		for _, metaID := range metaIDs[id] {
			if !seen[metaID] {
				seen[metaID] = true
				ids = append(ids, metaID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	metas, err := a.metas.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	built := make(map[string]*Recording)
	for _, recording := range b.Recordings(userMetaRows(metas)) {
		key := recording.ID
		if !anonymizeRecording(recording) {
			built[key] = recording
		}
	}
	for _, id := range trackIDs {
		for _, metaID := range metaIDs[id] {
			if recording, ok := built["meta:"+strconv.FormatInt(metaID, 10)]; ok {
				out[id].Recordings = append(out[id].Recordings, recording)
			}
		}
	}
	return nil
}

// perTrack builds a view directly below the track, from the rows of all
// recordings linked to it.
func (a *Assembler) perTrack(ctx context.Context, trackIDs []int64, build func([]model.MetadataRow) *TrackMetadata) (map[int64]*TrackMetadata, error) {
	links, mbids, err := a.links(ctx, trackIDs)
	if err != nil {
		return nil, err
	}
	rows, err := a.metadata.FindByRecordingIDs(ctx, mbids, true)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*TrackMetadata, len(trackIDs))
	for _, id := range trackIDs {
		linked := make(map[string]bool, len(links[id]))
		for _, link := range links[id] {
			linked[link.MBID] = true
		}
		var trackRows []model.MetadataRow
		for _, row := range rows {
			if linked[row.RecordingID] {
				trackRows = append(trackRows, row)
			}
		}
		out[id] = build(trackRows)
	}
	return out, nil
}

func (a *Assembler) m2(ctx context.Context, b *TreeBuilder, trackIDs []int64) (map[int64]*TrackMetadata, error) {
	links, mbids, err := a.links(ctx, trackIDs)
	if err != nil {
		return nil, err
	}
	rows, err := a.metadata.FindByRecordingIDs(ctx, mbids, true)
	if err != nil {
		return nil, err
	}
	built := make(map[string]*Recording)
	for _, recording := range b.M2(rows) {
		built[recording.ID] = recording
	}

	out := make(map[int64]*TrackMetadata, len(trackIDs))
	for _, id := range trackIDs {
		md := &TrackMetadata{}
		for _, link := range links[id] {
			recording, ok := built[link.MBID]
			if !ok {
				recording = &Recording{ID: link.MBID}
			}
			md.Recordings = append(md.Recordings, recording)
		}
		out[id] = md
	}
	return out, nil
}

// FingerprintResult holds the results of one query of a batch.
type FingerprintResult struct {
	Index   string   `json:"index"`
	Results []Result `json:"results"`
}

// Response is the payload of a lookup. A batch response lists the results
// per query, otherwise the results of the single query are returned.
type Response struct {
	Batch        bool
	Fingerprints []FingerprintResult
	Results      []Result
}

func (r *Response) MarshalJSON() ([]byte, error) {
	if r.Batch {
		fps := r.Fingerprints
		if fps == nil {
			fps = []FingerprintResult{}
		}
		return format.Marshal(struct {
			Fingerprints []FingerprintResult `json:"fingerprints"`
		}{fps})
	}
	results := r.Results
	if results == nil {
		results = []Result{}
	}
	return format.Marshal(struct {
		Results []Result `json:"results"`
	}{results})
}

func assemble(collector *Collector, batch bool, queries []params.LookupQuery, groups [][]int) *Response {
	resp := &Response{Batch: batch}
	if !batch {
		if len(groups) > 0 {
			resp.Results = collector.Results(groups[0])
		}
		return resp
	}
	resp.Fingerprints = make([]FingerprintResult, 0, len(queries))
	for i, q := range queries {
		resp.Fingerprints = append(resp.Fingerprints, FingerprintResult{
			Index:   q.Index,
			Results: collector.Results(groups[i]),
		})
	}
	return resp
}
