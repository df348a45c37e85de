package business

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/internal/entity"
	"github.com/nhoinets2/scan-match-sub001/internal/model"
	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/internal/styleapi"
	"github.com/nhoinets2/scan-match-sub001/pkg/errorutil"
	infraredis "github.com/nhoinets2/scan-match-sub001/pkg/infra/redis"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

type fakeScorer struct {
	evals      []outfit.PairEvaluation
	err        error
	includeLow bool
	calls      int
}

func (f *fakeScorer) EvaluatePairs(ctx context.Context, scan outfit.ScanItem, wardrobe []outfit.Item, includeLow bool) ([]outfit.PairEvaluation, error) {
	f.calls++
	f.includeLow = includeLow
	return f.evals, f.err
}

type fakeTrust struct {
	outcome *outfit.TrustOutcome
	err     error
	got     []styleapi.TrustItem
	calls   int
}

func (f *fakeTrust) FilterTrust(ctx context.Context, scan outfit.ScanItem, items []styleapi.TrustItem) (*outfit.TrustOutcome, error) {
	f.calls++
	f.got = items
	return f.outcome, f.err
}

type fakeWardrobe struct {
	items []outfit.Item
	err   error
	calls int
}

func (f *fakeWardrobe) ListByAccount(ctx context.Context, accountID string) ([]outfit.Item, error) {
	f.calls++
	return f.items, f.err
}

type fakeScanStore struct {
	mu     sync.Mutex
	calls  int
	scanID string
	status string
	errMsg string
	result *model.MatchResultData
	err    error
}

func (f *fakeScanStore) UpdateMatchResult(ctx context.Context, scanID string, result *model.MatchResultData, status string, errorMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.scanID = scanID
	f.result = result
	f.status = status
	f.errMsg = errorMsg
	return f.err
}

type fakeQueue struct {
	mu       sync.Mutex
	queue    string
	payloads [][]byte
	err      error
}

func (f *fakeQueue) Publish(queue string, data []byte, ttl, delay uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.queue = queue
	f.payloads = append(f.payloads, data)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	channel string
	notes   []*infraredis.MatchNotification
	err     error
}

func (f *fakeNotifier) PublishMatchComplete(ctx context.Context, channel string, n *infraredis.MatchNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.channel = channel
	f.notes = append(f.notes, n)
	return nil
}

type serviceFixture struct {
	service  *MatchService
	scorer   *fakeScorer
	trust    *fakeTrust
	wardrobe *fakeWardrobe
	store    *fakeScanStore
	queue    *fakeQueue
	notifier *fakeNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	wardrobeItems := []outfit.Item{
		{ID: "b1", Category: outfit.CategoryBottoms, Label: "slim chinos"},
		{ID: "s1", Category: outfit.CategoryShoes, Label: "white sneakers"},
	}
	f := &serviceFixture{
		scorer: &fakeScorer{evals: []outfit.PairEvaluation{
			{ScanItemID: "scan-item-1", ItemID: "b1", PairType: "tops_bottoms", Score: 0.90, Tier: outfit.TierHigh},
			{ScanItemID: "scan-item-1", ItemID: "s1", PairType: "tops_shoes", Score: 0.88, Tier: outfit.TierHigh},
		}},
		trust:    &fakeTrust{},
		wardrobe: &fakeWardrobe{items: wardrobeItems},
		store:    &fakeScanStore{},
		queue:    &fakeQueue{},
		notifier: &fakeNotifier{},
	}

	f.service = NewMatchService(MatchServiceDeps{
		Engine:        outfit.NewEngine(outfit.DefaultConfig(), logger.Nop{}),
		Scorer:        f.scorer,
		Trust:         f.trust,
		Wardrobe:      f.wardrobe,
		Scans:         f.store,
		Callback:      f.queue,
		Notifier:      f.notifier,
		CallbackQueue: "match_callback",
		Logger:        logger.Nop{},
	})
	return f
}

func matchInput() *MatchInput {
	return &MatchInput{
		RequestID: "req-1",
		ScanID:    "scan-rec-1",
		AccountID: "acct-1",
		Scan: outfit.ScanItem{
			Item: outfit.Item{ID: "scan-item-1", Category: outfit.CategoryTops, Label: "boxy white tee"},
		},
	}
}

func TestExecuteMatchHappyPath(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err)
	require.NotNil(t, result)

	require.True(t, result.Evaluated)
	require.Equal(t, outfit.UIStateHigh, result.UIState)
	require.Len(t, result.HighMatches, 2)

	// 落库
	require.Equal(t, 1, f.store.calls)
	require.Equal(t, "scan-rec-1", f.store.scanID)
	require.Equal(t, entity.ScanStatusMatched, f.store.status)
	require.Same(t, result, f.store.result)

	// 回调
	require.Equal(t, "match_callback", f.queue.queue)
	require.Len(t, f.queue.payloads, 1)

	// 通知（落库后才广播）
	require.Equal(t, MatchCompleteChannel, f.notifier.channel)
	require.Len(t, f.notifier.notes, 1)
	require.Equal(t, entity.ScanStatusMatched, f.notifier.notes[0].Status)
	require.Equal(t, outfit.UIStateHigh, f.notifier.notes[0].UIState)
}

func TestExecuteMatchScorerFailureDegrades(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.scorer.err = errors.New("scorer 502")

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err, "scorer outage is expected degradation, not a job failure")
	require.False(t, result.Evaluated)
	require.Equal(t, outfit.UIStateLow, result.UIState)
	require.Empty(t, result.HighMatches)

	// 降级结果照常落库 + 回调
	require.Equal(t, entity.ScanStatusMatched, f.store.status)
	require.Len(t, f.queue.payloads, 1)
	// 信任过滤不应被调用：没有可过滤的评估
	require.Zero(t, f.trust.calls)
}

func TestExecuteMatchAllMalformedEvaluationsDegrade(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.scorer.evals = []outfit.PairEvaluation{
		{ScanItemID: "scan-item-1", ItemID: "", Score: 0.9, Tier: outfit.TierHigh},
		{ScanItemID: "scan-item-1", ItemID: "b1", Score: 0.9, Tier: outfit.ConfidenceTier("BOGUS")},
	}

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err)
	require.False(t, result.Evaluated)
}

func TestExecuteMatchWardrobeLoadRetryable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.wardrobe.err = errors.New("mysql gone away")

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.Error(t, err)
	require.Nil(t, result)
	require.True(t, errorutil.IsRetryable(err))
	require.Zero(t, f.store.calls)
	require.Empty(t, f.queue.payloads)
}

func TestExecuteMatchInlineWardrobeSkipsDB(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.wardrobe.err = errors.New("must not be called")

	input := matchInput()
	input.InlineWardrobe = []outfit.Item{
		{ID: "b1", Category: outfit.CategoryBottoms, Label: "slim chinos"},
		{ID: "s1", Category: outfit.CategoryShoes, Label: "white sneakers"},
	}

	result, err := f.service.ExecuteMatch(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, outfit.UIStateHigh, result.UIState)
	require.Zero(t, f.wardrobe.calls)
}

func TestExecuteMatchPersistFailureRetryable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.store.err = errors.New("lock wait timeout")

	_, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.Error(t, err)
	require.True(t, errorutil.IsRetryable(err))
	// 回调必须在落库成功之后
	require.Empty(t, f.queue.payloads)
	require.Empty(t, f.notifier.notes)
}

func TestExecuteMatchScanNotFoundNonRetryable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.store.err = fmt.Errorf("scan scan-rec-1: %w", model.ErrScanNotFound)

	_, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.Error(t, err)
	// 记录不存在重投也救不回来
	require.False(t, errorutil.IsRetryable(err))
	require.Empty(t, f.queue.payloads)
}

func TestExecuteMatchCallbackFailureRetryable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.queue.err = errors.New("lmstfy unreachable")

	_, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.Error(t, err)
	require.True(t, errorutil.IsRetryable(err))
	require.Equal(t, 1, f.store.calls)
	require.Empty(t, f.notifier.notes)
}

func TestExecuteMatchNotifyFailureBestEffort(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.notifier.err = errors.New("redis connection reset")

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err, "notification is best effort")
	require.NotNil(t, result)
}

func TestExecuteMatchTrustFailureKeepsAll(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.trust.err = errors.New("trust service 500")

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err)
	// 信任过滤只收暂定 HIGH 候选
	require.Len(t, f.trust.got, 2)
	// 服务不可用=信息不足：两件 HIGH 原样保留
	require.Len(t, result.HighMatches, 2)
	require.Equal(t, outfit.UIStateHigh, result.UIState)
}

func TestExecuteMatchTrustDemoteFlowsThrough(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.trust.outcome = &outfit.TrustOutcome{
		Decisions: map[string]outfit.TrustDecision{
			"b1": {ItemID: "b1", Action: outfit.TrustDemoteToNear, Trace: &outfit.TrustTrace{ArchetypeDistance: outfit.ArchetypeMedium, FormalityGap: 1}},
		},
		Stats: outfit.TrustStats{Kept: 1, Demoted: 1},
	}

	result, err := f.service.ExecuteMatch(context.Background(), matchInput())
	require.NoError(t, err)
	require.Len(t, result.HighMatches, 1)
	require.Equal(t, "s1", result.HighMatches[0].ItemID)
	require.Len(t, result.NearMatches, 1)
	require.Equal(t, "b1", result.NearMatches[0].ItemID)
}

func TestFailMatchMarksTerminalState(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	input := matchInput()
	f.service.FailMatch(context.Background(), input, errors.New("scan item category unknown"))

	require.Equal(t, entity.ScanStatusFailed, f.store.status)
	require.Equal(t, "scan item category unknown", f.store.errMsg)
	require.Nil(t, f.store.result)
	require.Len(t, f.queue.payloads, 1)
	require.Len(t, f.notifier.notes, 1)
	require.Equal(t, entity.ScanStatusFailed, f.notifier.notes[0].Status)
}
