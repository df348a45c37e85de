package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/internal/business"
	"github.com/nhoinets2/scan-match-sub001/internal/model"
	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/lmstfyx"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

type stubScorer struct {
	evals []outfit.PairEvaluation
}

func (s *stubScorer) EvaluatePairs(ctx context.Context, scan outfit.ScanItem, wardrobe []outfit.Item, includeLow bool) ([]outfit.PairEvaluation, error) {
	return s.evals, nil
}

type stubScanStore struct {
	calls  int
	status string
	err    error
}

func (s *stubScanStore) UpdateMatchResult(ctx context.Context, scanID string, result *model.MatchResultData, status string, errorMsg string) error {
	s.calls++
	s.status = status
	return s.err
}

type stubQueue struct {
	payloads [][]byte
}

func (q *stubQueue) Publish(queue string, data []byte, ttl, delay uint32) error {
	q.payloads = append(q.payloads, data)
	return nil
}

type procFixture struct {
	proc  lmstfyx.Proc
	store *stubScanStore
	queue *stubQueue
}

func newProcFixture() *procFixture {
	store := &stubScanStore{}
	queue := &stubQueue{}

	service := business.NewMatchService(business.MatchServiceDeps{
		Engine: outfit.NewEngine(nil, logger.Nop{}),
		Scorer: &stubScorer{evals: []outfit.PairEvaluation{
			{ScanItemID: "scan-item-1", ItemID: "b1", PairType: "tops_bottoms", Score: 0.9, Tier: outfit.TierHigh},
		}},
		Scans:         store,
		Callback:      queue,
		CallbackQueue: "match_callback",
		Logger:        logger.Nop{},
	})

	return &procFixture{
		proc:  GetProcess(logger.Nop{}, service),
		store: store,
		queue: queue,
	}
}

// matchJobData 构造标准信封（衣橱内联，跳过 DB 查询）
func matchJobData(t *testing.T, actionType string, businessData model.WardrobeMatchBusinessData) []byte {
	t.Helper()

	raw, err := json.Marshal(model.WardrobeMatchJob{
		Payload: model.WardrobeMatchPayload{
			Data: model.WardrobeMatchData{
				RequestID:  "req-1",
				AccountID:  "acct-1",
				ActionType: actionType,
				ID:         "scan-rec-1",
				Data:       businessData,
			},
		},
	})
	require.NoError(t, err)
	return raw
}

func validBusinessData() model.WardrobeMatchBusinessData {
	return model.WardrobeMatchBusinessData{
		ScanID:    "scan-rec-1",
		AccountID: "acct-1",
		ScanItem: outfit.ScanItem{
			Item:   outfit.Item{ID: "scan-item-1", Category: outfit.CategoryTops, Label: "白色衬衫"},
			ScanID: "scan-rec-1",
		},
		InlineWardrobe: []outfit.Item{
			{ID: "b1", Category: outfit.CategoryBottoms, Label: "卡其裤"},
		},
	}
}

func TestGetProcessSuccess(t *testing.T) {
	f := newProcFixture()

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-1",
		Queue: "wardrobe_match",
		Data:  matchJobData(t, "wardrobe_match", validBusinessData()),
	})

	require.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	require.Contains(t, string(resp.Data), `"status":"SUCCESS"`)
	require.Equal(t, 1, f.store.calls)
	require.Len(t, f.queue.payloads, 1)
}

func TestGetProcessMalformedJobBuries(t *testing.T) {
	f := newProcFixture()

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-2",
		Queue: "wardrobe_match",
		Data:  []byte("{not json"),
	})

	require.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	require.Zero(t, f.store.calls)
}

func TestGetProcessUnknownActionBuries(t *testing.T) {
	f := newProcFixture()

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-3",
		Queue: "wardrobe_match",
		Data:  matchJobData(t, "wardrobe_delete", validBusinessData()),
	})

	require.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}

func TestGetProcessValidationFailureBuries(t *testing.T) {
	f := newProcFixture()

	data := validBusinessData()
	data.ScanItem.ID = "" // 缺扫描件 ID，Handler 构造即失败

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-4",
		Queue: "wardrobe_match",
		Data:  matchJobData(t, "wardrobe_match", data),
	})

	require.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	require.Zero(t, f.store.calls)
}

func TestGetProcessRetryableFailureReleases(t *testing.T) {
	f := newProcFixture()
	f.store.err = fmt.Errorf("lock wait timeout")

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-5",
		Queue: "wardrobe_match",
		Data:  matchJobData(t, "wardrobe_match", validBusinessData()),
	})

	require.Equal(t, lmstfyx.JobRespStatusRelease, resp.Action)
	// 落库失败即中断，不发成功回调
	require.Empty(t, f.queue.payloads)
}

func TestGetProcessScanNotFoundBuriesWithFailedCallback(t *testing.T) {
	f := newProcFixture()
	f.store.err = fmt.Errorf("scan scan-rec-1: %w", model.ErrScanNotFound)

	resp := f.proc(context.Background(), &client.Job{
		ID:    "job-6",
		Queue: "wardrobe_match",
		Data:  matchJobData(t, "wardrobe_match", validBusinessData()),
	})

	// 不可重试：转储死信，但先补发 FAILED 回调
	require.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	require.Equal(t, 2, f.store.calls) // 首次落库 + FailMatch 标记 FAILED
	require.Len(t, f.queue.payloads, 1)
	require.Contains(t, string(f.queue.payloads[0]), `"status":"FAILED"`)
}
