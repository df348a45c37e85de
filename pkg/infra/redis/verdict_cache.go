package redis

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
)

// VerdictCache 安全判定缓存
// 判定由 (扫描件, 单品, 策略版本) 唯一决定，所以按内容寻址：
// 策略版本换了 key 自然失效，不需要主动清理
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerdictCache 创建判定缓存实例
func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	return &VerdictCache{
		client: client,
		ttl:    ttl,
	}
}

// pairKey 生成配对缓存键：策略版本 + 配对指纹
func pairKey(policyVersion, scanItemID, itemID string) string {
	sum := sha1.Sum([]byte(scanItemID + "\x00" + itemID))
	return fmt.Sprintf("safety:verdict:%s:%x", policyVersion, sum)
}

// Get 查询缓存判定，未命中返回 (nil, nil)
func (c *VerdictCache) Get(ctx context.Context, policyVersion, scanItemID, itemID string) (*outfit.SafetyVerdict, error) {
	raw, err := c.client.Get(ctx, pairKey(policyVersion, scanItemID, itemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("verdict cache get failed: %w", err)
	}

	var verdict outfit.SafetyVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, fmt.Errorf("verdict cache decode failed: %w", err)
	}
	return &verdict, nil
}

// Set 写入判定，带 TTL
func (c *VerdictCache) Set(ctx context.Context, policyVersion, scanItemID, itemID string, verdict *outfit.SafetyVerdict) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("verdict cache encode failed: %w", err)
	}

	if err := c.client.Set(ctx, pairKey(policyVersion, scanItemID, itemID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("verdict cache set failed: %w", err)
	}
	return nil
}
