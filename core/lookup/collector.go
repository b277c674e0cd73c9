package lookup

import (
	"bytes"
	"encoding/json"

	"acoustid/core/fingerprint"
)

// Result is one matched track in a lookup response.
type Result struct {
	ID            string          `json:"id"`
	Recordings    []*Recording    `json:"recordings,omitempty"`
	ReleaseGroups []*ReleaseGroup `json:"releasegroups,omitempty"`
	Releases      []*Release      `json:"releases,omitempty"`
	Score         Score           `json:"score"`
}

// Score is a match score in [0, 1]. Whole values are encoded with a
// fractional part, so a perfect match reads 1.0.
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(float64(s))
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(data, ".eE") {
		data = append(data, ".0"...)
	}
	return data, nil
}

// Collector deduplicates matches into results. All results of a request live
// in one arena; byTrack lists the arena entries of every track so metadata
// fetched once can be copied into each of them.
type Collector struct {
	results []Result
	byTrack map[int64][]int
	tracks  []int64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{byTrack: make(map[int64][]int)}
}

// Add records the matches of one query and returns the arena indexes of its
// results. Matches must be ordered by descending score; only the first match
// of each track is kept.
func (c *Collector) Add(matches []fingerprint.Match) []int {
	seen := make(map[int64]bool, len(matches))
	indexes := make([]int, 0, len(matches))
	for _, m := range matches {
		if seen[m.TrackID] {
			continue
		}
		seen[m.TrackID] = true

		i := len(c.results)
		c.results = append(c.results, Result{ID: m.TrackGid, Score: Score(m.Score)})
		if _, ok := c.byTrack[m.TrackID]; !ok {
			c.tracks = append(c.tracks, m.TrackID)
		}
		c.byTrack[m.TrackID] = append(c.byTrack[m.TrackID], i)
		indexes = append(indexes, i)
	}
	return indexes
}

// TrackIDs returns the distinct matched tracks in first seen order.
func (c *Collector) TrackIDs() []int64 {
	return c.tracks
}

// Len returns the number of results in the arena.
func (c *Collector) Len() int {
	return len(c.results)
}

// Apply copies the metadata of trackID into every result of that track.
func (c *Collector) Apply(trackID int64, md *TrackMetadata) {
	for _, i := range c.byTrack[trackID] {
		r := &c.results[i]
		r.Recordings = md.Recordings
		r.ReleaseGroups = md.ReleaseGroups
		r.Releases = md.Releases
	}
}

// Results returns the results at the given arena indexes.
func (c *Collector) Results(indexes []int) []Result {
	out := make([]Result, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, c.results[i])
	}
	return out
}
