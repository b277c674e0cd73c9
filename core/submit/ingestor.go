package submit

import (
	"context"
	"time"

	"acoustid/core/apierr"
	"acoustid/core/params"
	"acoustid/logger"
	"acoustid/model"
	"acoustid/repository"
)

// Submission states reported to clients.
const (
	StatusPending  = "pending"
	StatusImported = "imported"
)

const (
	maxWait      = 10 * time.Second
	pollInterval = 500 * time.Millisecond
)

// Notifier announces stored submissions to the importer.
type Notifier interface {
	Publish(ctx context.Context, ids []int64) error
}

// ImportedTrack identifies the track a submission was imported into.
type ImportedTrack struct {
	ID string `json:"id"`
}

// SubmissionStatus is the state of one submission.
type SubmissionStatus struct {
	ID       int64          `json:"id"`
	Index    string         `json:"index,omitempty"`
	Response *ImportedTrack `json:"response,omitempty"`
	Status   string         `json:"status"`
}

// StatusResponse is the payload of submit and submission_status.
type StatusResponse struct {
	Submissions []SubmissionStatus `json:"submissions"`
}

func (r *StatusResponse) pending() bool {
	for _, s := range r.Submissions {
		if s.Status == StatusPending {
			return true
		}
	}
	return false
}

// Ingestor stores submissions and reports their import status.
type Ingestor struct {
	submissions  repository.SubmissionRepository
	notifier     Notifier
	maxWait      time.Duration
	pollInterval time.Duration
}

// NewIngestor 创建提交处理器，waitMax/waitInterval 为零时使用默认值
func NewIngestor(submissions repository.SubmissionRepository, notifier Notifier, waitMax, waitInterval time.Duration) *Ingestor {
	in := &Ingestor{
		submissions:  submissions,
		notifier:     notifier,
		maxWait:      maxWait,
		pollInterval: pollInterval,
	}
	if waitMax > 0 {
		in.maxWait = waitMax
	}
	if waitInterval > 0 {
		in.pollInterval = waitInterval
	}
	return in
}

// Submit stores every submission in one transaction, notifies the importer
// and returns the status of the new submissions. With wait set, it polls
// for up to wait seconds (never more than maxWait) until none is pending.
func (in *Ingestor) Submit(ctx context.Context, p *params.SubmitParams) (*StatusResponse, error) {
	rows := make([]*model.Submission, 0, len(p.Submissions))
	for _, s := range p.Submissions {
		rows = append(rows, &model.Submission{
			AccountID:          p.AccountID,
			ApplicationID:      p.ApplicationID,
			ApplicationVersion: optString(p.ApplicationVersion),
			Fingerprint:        s.Fingerprint,
			Duration:           s.Duration,
			Bitrate:            optInt(s.Bitrate),
			Format:             optString(s.Format),
			MBID:               optString(s.MBID),
			PUID:               optString(s.PUID),
			ForeignID:          optString(s.ForeignID),
			Track:              optString(s.Track),
			Artist:             optString(s.Artist),
			Album:              optString(s.Album),
			AlbumArtist:        optString(s.AlbumArtist),
			TrackNo:            optInt(s.TrackNo),
			DiscNo:             optInt(s.DiscNo),
			Year:               optInt(s.Year),
		})
	}

	if err := in.submissions.CreateAll(ctx, rows); err != nil {
		logger.Error("[Submit] failed to store submissions", logger.ErrorField(err))
		return nil, apierr.Internal()
	}

	ids := make([]int64, 0, len(rows))
	indexes := make(map[int64]string, len(rows))
	for i, row := range rows {
		ids = append(ids, row.ID)
		indexes[row.ID] = p.Submissions[i].Index
	}
	logger.Info("[Submit] stored submissions",
		logger.Int64("accountId", p.AccountID),
		logger.Int64("applicationId", p.ApplicationID),
		logger.Int64s("ids", ids))

	if in.notifier != nil {
		if err := in.notifier.Publish(ctx, ids); err != nil {
			logger.Warn("[Submit] failed to notify importer", logger.Int64s("ids", ids), logger.ErrorField(err))
		}
	}

	resp, err := in.wait(ctx, ids, p.Wait)
	if err != nil {
		return nil, err
	}
	for i := range resp.Submissions {
		resp.Submissions[i].Index = indexes[resp.Submissions[i].ID]
	}
	return resp, nil
}

func (in *Ingestor) wait(ctx context.Context, ids []int64, seconds int) (*StatusResponse, error) {
	resp, err := in.Status(ctx, ids)
	if err != nil || seconds <= 0 || !resp.pending() {
		return resp, err
	}

	timeout := min(time.Duration(seconds)*time.Second, in.maxWait)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(in.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return resp, nil
		case <-ticker.C:
		}
		next, err := in.Status(ctx, ids)
		if err != nil {
			if ctx.Err() != nil {
				return resp, nil
			}
			return nil, err
		}
		resp = next
		if !resp.pending() {
			return resp, nil
		}
	}
}

// Status reports whether each submission is still pending or has been
// imported, in the order of ids.
func (in *Ingestor) Status(ctx context.Context, ids []int64) (*StatusResponse, error) {
	imported, err := in.submissions.FindImportedTrackGids(ctx, ids)
	if err != nil {
		logger.Error("[Submit] failed to load submission status", logger.ErrorField(err))
		return nil, apierr.Internal()
	}

	resp := &StatusResponse{Submissions: make([]SubmissionStatus, 0, len(ids))}
	for _, id := range ids {
		status := SubmissionStatus{ID: id, Status: StatusPending}
		if gid, ok := imported[id]; ok {
			status.Status = StatusImported
			status.Response = &ImportedTrack{ID: gid}
		}
		resp.Submissions = append(resp.Submissions, status)
	}
	return resp, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
