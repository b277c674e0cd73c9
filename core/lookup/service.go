package lookup

import (
	"context"
	"errors"
	"time"

	"acoustid/core/apierr"
	"acoustid/core/fingerprint"
	"acoustid/core/params"
	"acoustid/logger"
	"acoustid/repository"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Stats receives lookup counters. Failures are logged and never fail a lookup.
type Stats interface {
	CountLookup(ctx context.Context, applicationID int64, hit bool) error
	CountUserAgent(ctx context.Context, applicationID int64, userAgent, ip string) error
	AddLookupTime(ctx context.Context, d time.Duration) error
}

// Service answers lookup requests.
type Service struct {
	searcher    fingerprint.Searcher
	tracks      repository.TrackRepository
	assembler   *Assembler
	stats       Stats
	concurrency int64
}

// NewService 创建查询服务，concurrency 限制批量查询时并发搜索的数量
func NewService(searcher fingerprint.Searcher, tracks repository.TrackRepository, metadata repository.MetadataRepository,
	metas repository.MetaRepository, stats Stats, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		searcher:    searcher,
		tracks:      tracks,
		assembler:   NewAssembler(tracks, metadata, metas),
		stats:       stats,
		concurrency: int64(concurrency),
	}
}

// Lookup searches every query of p, attaches the requested metadata and
// shapes the response. Only the first query is used outside batch mode.
func (s *Service) Lookup(ctx context.Context, p *params.LookupParams, userAgent, ip string) (*Response, error) {
	start := time.Now()
	if s.stats != nil {
		s.record("user agent", s.stats.CountUserAgent(ctx, p.ApplicationID, userAgent, ip))
	}

	queries := p.Queries
	if !p.Batch && len(queries) > 1 {
		queries = queries[:1]
	}

	matches, err := s.search(ctx, queries, p.MaxDurationDiff)
	if err != nil {
		return nil, err
	}

	collector := NewCollector()
	groups := make([][]int, len(queries))
	for i := range matches {
		groups[i] = collector.Add(matches[i])
		if s.stats != nil {
			s.record("lookup", s.stats.CountLookup(ctx, p.ApplicationID, len(groups[i]) > 0))
		}
	}

	if len(p.Meta) > 0 && collector.Len() > 0 {
		md, err := s.assembler.Metadata(ctx, p.Meta, collector.TrackIDs())
		if err != nil {
			logger.Error("[Lookup] failed to load metadata", logger.ErrorField(err))
			return nil, apierr.Internal()
		}
		for trackID, m := range md {
			collector.Apply(trackID, m)
		}
	}

	if s.stats != nil && len(queries) > 0 {
		s.record("lookup time", s.stats.AddLookupTime(ctx, time.Since(start)/time.Duration(len(queries))))
	}

	logger.Debug("[Lookup] request served",
		logger.Int64("applicationId", p.ApplicationID),
		logger.Int("queries", len(queries)),
		logger.Int("results", collector.Len()),
		logger.Duration("elapsed", time.Since(start)))

	return assemble(collector, p.Batch, queries, groups), nil
}

// search runs the queries concurrently and returns their matches in query order.
func (s *Service) search(ctx context.Context, queries []params.LookupQuery, maxDurationDiff int) ([][]fingerprint.Match, error) {
	results := make([][]fingerprint.Match, len(queries))
	if len(queries) == 1 {
		m, err := s.searchOne(ctx, queries[0], maxDurationDiff)
		if err != nil {
			return nil, err
		}
		results[0] = m
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(s.concurrency)
	for i, q := range queries {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			m, err := s.searchOne(gctx, q, maxDurationDiff)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) searchOne(ctx context.Context, q params.LookupQuery, maxDurationDiff int) ([]fingerprint.Match, error) {
	if q.TrackGid != "" {
		trackID, err := s.tracks.ResolveGid(ctx, q.TrackGid)
		if err != nil {
			logger.Error("[Lookup] failed to resolve track id",
				logger.String("trackId", q.TrackGid), logger.ErrorField(err))
			return nil, apierr.Internal()
		}
		return []fingerprint.Match{{TrackID: trackID, TrackGid: q.TrackGid, Score: 1.0}}, nil
	}

	matches, err := s.searcher.Search(ctx, q.Fingerprint, q.Duration, maxDurationDiff)
	if err != nil {
		if errors.Is(err, fingerprint.ErrSearchTimeout) {
			logger.Warn("[Lookup] fingerprint search timed out", logger.String("index", q.Index))
			return nil, apierr.Unavailable()
		}
		logger.Error("[Lookup] fingerprint search failed", logger.ErrorField(err))
		return nil, apierr.Internal()
	}
	return matches, nil
}

func (s *Service) record(name string, err error) {
	if err != nil {
		logger.Warn("[Lookup] failed to update stats", logger.String("counter", name), logger.ErrorField(err))
	}
}
