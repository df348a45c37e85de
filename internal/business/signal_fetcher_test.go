package business

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

type fakeSignalSource struct {
	signals *outfit.StyleSignals
	err     error
	calls   int
}

func (f *fakeSignalSource) GetSignals(ctx context.Context, itemID string) (*outfit.StyleSignals, error) {
	f.calls++
	return f.signals, f.err
}

func TestSignalFetcherCachesHit(t *testing.T) {
	t.Parallel()

	source := &fakeSignalSource{signals: &outfit.StyleSignals{Archetypes: []string{"classic"}}}
	fetcher := NewSignalFetcher(source, time.Second, time.Minute, logger.Nop{})

	first := fetcher.Fetch(context.Background(), "item-1")
	second := fetcher.Fetch(context.Background(), "item-1")

	require.NotNil(t, first)
	require.Same(t, first, second)
	require.Equal(t, 1, source.calls)
}

func TestSignalFetcherCachesNotFound(t *testing.T) {
	t.Parallel()

	// 404 返回 (nil, nil)，也要缓存住，避免反复打空
	source := &fakeSignalSource{}
	fetcher := NewSignalFetcher(source, time.Second, time.Minute, logger.Nop{})

	require.Nil(t, fetcher.Fetch(context.Background(), "item-404"))
	require.Nil(t, fetcher.Fetch(context.Background(), "item-404"))
	require.Equal(t, 1, source.calls)
}

func TestSignalFetcherErrorNotCached(t *testing.T) {
	t.Parallel()

	source := &fakeSignalSource{err: errors.New("connection refused")}
	fetcher := NewSignalFetcher(source, time.Second, time.Minute, logger.Nop{})

	require.Nil(t, fetcher.Fetch(context.Background(), "item-1"))

	// 失败不缓存：服务恢复后下一次就能拉到
	source.err = nil
	source.signals = &outfit.StyleSignals{Statement: outfit.StatementHigh}

	got := fetcher.Fetch(context.Background(), "item-1")
	require.NotNil(t, got)
	require.Equal(t, outfit.StatementHigh, got.Statement)
	require.Equal(t, 2, source.calls)
}

func TestSignalFetcherEmptyID(t *testing.T) {
	t.Parallel()

	source := &fakeSignalSource{}
	fetcher := NewSignalFetcher(source, time.Second, time.Minute, logger.Nop{})

	require.Nil(t, fetcher.Fetch(context.Background(), ""))
	require.Zero(t, source.calls)
}
