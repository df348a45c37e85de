package business

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// SignalSource 风格信号来源
type SignalSource interface {
	GetSignals(ctx context.Context, itemID string) (*outfit.StyleSignals, error)
}

// SignalFetcher 扫描件风格信号拉取器（带本地 TTL 缓存）
// 拉不到信号是"信息不足"，不是错误：超时、网络失败、404 一律返回 nil
type SignalFetcher struct {
	source  SignalSource
	cache   *gocache.Cache
	timeout time.Duration
	log     logger.Logger
}

// NewSignalFetcher 创建信号拉取器
func NewSignalFetcher(source SignalSource, timeout, cacheTTL time.Duration, log logger.Logger) *SignalFetcher {
	return &SignalFetcher{
		source:  source,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		timeout: timeout,
		log:     log,
	}
}

// Fetch 拉取单品风格信号，失败返回 nil
func (f *SignalFetcher) Fetch(ctx context.Context, itemID string) *outfit.StyleSignals {
	if itemID == "" {
		return nil
	}

	if cached, ok := f.cache.Get(itemID); ok {
		signals, _ := cached.(*outfit.StyleSignals)
		return signals
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	signals, err := f.source.GetSignals(fetchCtx, itemID)
	if err != nil {
		// 不缓存失败：下一单还有机会拉到
		f.log.Warnf(ctx, "[SignalFetcher] fetch failed for item %s: %v", itemID, err)
		return nil
	}

	// 404（signals 为 nil）也缓存，避免反复打空
	f.cache.Set(itemID, signals, gocache.DefaultExpiration)
	return signals
}
