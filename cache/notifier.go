package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// SubmissionsChannel is consumed by the importer that matches new submissions.
const SubmissionsChannel = "channel.submissions"

// SubmissionNotifier announces newly stored submissions.
type SubmissionNotifier struct {
	client  *redis.Client
	channel string
}

// NewSubmissionNotifier 创建提交通知器
func NewSubmissionNotifier(client *redis.Client) *SubmissionNotifier {
	return &SubmissionNotifier{client: client, channel: SubmissionsChannel}
}

// Publish sends the submission ids as a JSON array.
func (n *SubmissionNotifier) Publish(ctx context.Context, ids []int64) error {
	if n.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal submission ids: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish submissions: %w", err)
	}
	return nil
}
