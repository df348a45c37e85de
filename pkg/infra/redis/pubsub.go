package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
)

// PubSub Redis 发布/订阅客户端
type PubSub struct {
	client *redis.Client
}

// NewPubSub 创建 PubSub 实例
func NewPubSub(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

// MatchNotification 匹配完成通知消息
// 结果落库之后才发布，订阅方收到即表示可以整页刷新
type MatchNotification struct {
	ScanID    string         `json:"scan_id"`
	AccountID string         `json:"account_id"`
	Status    string         `json:"status"` // MATCHED/FAILED
	UIState   outfit.UIState `json:"ui_state,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// PublishMatchComplete 发布匹配完成通知
// 参数：
//   - ctx: 上下文
//   - channel: Redis 频道名称（建议：wardrobe_match_complete）
//   - notification: 通知消息
func (p *PubSub) PublishMatchComplete(
	ctx context.Context,
	channel string,
	notification *MatchNotification,
) error {
	msgJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := p.client.Publish(ctx, channel, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Subscribe 订阅 Redis 频道（用于测试）
func (p *PubSub) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return p.client.Subscribe(ctx, channel)
}
