package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrSearchTimeout is returned when the index does not answer in time.
var ErrSearchTimeout = errors.New("fingerprint search timed out")

// Match is one candidate track returned by the index.
type Match struct {
	FingerprintID int64   `json:"fingerprint_id"`
	TrackID       int64   `json:"track_id"`
	TrackGid      string  `json:"track_gid"`
	Score         float64 `json:"score"`
}

// Searcher finds candidate tracks for a fingerprint. Matches are ordered by
// descending score.
type Searcher interface {
	Search(ctx context.Context, fp []int32, duration, maxDurationDiff int) ([]Match, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type searchRequest struct {
	Fingerprint     []int32 `json:"fingerprint"`
	Duration        int     `json:"duration"`
	MaxDurationDiff int     `json:"max_duration_diff"`
}

type searchResponse struct {
	Results []Match `json:"results"`
}

// IndexSearcher queries the fingerprint index over HTTP.
type IndexSearcher struct {
	baseURL string
	timeout time.Duration
	client  HTTPDoer
}

// NewIndexSearcher creates a searcher for the index at baseURL. Every search
// is bounded by timeout.
func NewIndexSearcher(baseURL string, timeout time.Duration, client HTTPDoer) *IndexSearcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &IndexSearcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		client:  client,
	}
}

func (s *IndexSearcher) Search(ctx context.Context, fp []int32, duration, maxDurationDiff int) ([]Match, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	body, err := json.Marshal(searchRequest{Fingerprint: fp, Duration: duration, MaxDurationDiff: maxDurationDiff})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("search index returned %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Results, nil
}
