package params

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// SubmissionStatusParams are the parameters of a submission_status request.
type SubmissionStatusParams struct {
	Client
	IDs []int64
}

// ParseSubmissionStatus validates a submission status request. Ids that are
// not numbers are ignored.
func (p *Parser) ParseSubmissionStatus(ctx context.Context, values url.Values) (*SubmissionStatusParams, error) {
	client, err := p.ParseClient(ctx, values)
	if err != nil {
		return nil, err
	}

	params := &SubmissionStatusParams{Client: client}
	for _, raw := range values["id"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			continue
		}
		params.IDs = append(params.IDs, id)
	}
	return params, nil
}
