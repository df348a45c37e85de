package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhoinets2/scan-match-sub001/internal/entity"
	"github.com/nhoinets2/scan-match-sub001/internal/model"
	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/internal/styleapi"
	"github.com/nhoinets2/scan-match-sub001/pkg/errorutil"
	infraredis "github.com/nhoinets2/scan-match-sub001/pkg/infra/redis"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// MatchCompleteChannel 匹配完成通知的默认 Redis 频道
const MatchCompleteChannel = "wardrobe_match_complete"

// PairScorer 两两配对打分服务
type PairScorer interface {
	EvaluatePairs(ctx context.Context, scan outfit.ScanItem, wardrobe []outfit.Item, includeLow bool) ([]outfit.PairEvaluation, error)
}

// TrustFilter 信任过滤服务（Pass A）
type TrustFilter interface {
	FilterTrust(ctx context.Context, scan outfit.ScanItem, items []styleapi.TrustItem) (*outfit.TrustOutcome, error)
}

// WardrobeSource 衣橱读取
type WardrobeSource interface {
	ListByAccount(ctx context.Context, accountID string) ([]outfit.Item, error)
}

// ScanStore 扫描记录写入
type ScanStore interface {
	UpdateMatchResult(ctx context.Context, scanID string, result *model.MatchResultData, status string, errorMsg string) error
}

// CallbackPublisher 回调队列发布
type CallbackPublisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// CompleteNotifier 完成通知广播
type CompleteNotifier interface {
	PublishMatchComplete(ctx context.Context, channel string, notification *infraredis.MatchNotification) error
}

// MatchService 衣橱匹配服务
// 职责：编排 打分 → 信任过滤 → 安全校验 → 决策管线 → 落库 → 回调 → 通知。
// 打分失败降级为"未评估"结果而非报错；基础设施失败返回可重试错误走队列重投
type MatchService struct {
	engine   *outfit.Engine
	scorer   PairScorer
	trust    TrustFilter
	safety   *SafetyGate
	signals  *SignalFetcher
	wardrobe WardrobeSource
	scans    ScanStore
	callback CallbackPublisher
	notifier CompleteNotifier

	matchCfg      *outfit.Config
	callbackQueue string
	notifyChannel string
	log           logger.Logger
}

// MatchServiceDeps 匹配服务依赖
// Wardrobe/Scans/Callback/Notifier 可为 nil（预览与回放场景跳过基础设施）
type MatchServiceDeps struct {
	Engine   *outfit.Engine
	Scorer   PairScorer
	Trust    TrustFilter
	Safety   *SafetyGate
	Signals  *SignalFetcher
	Wardrobe WardrobeSource
	Scans    ScanStore
	Callback CallbackPublisher
	Notifier CompleteNotifier

	MatchCfg      *outfit.Config
	CallbackQueue string
	NotifyChannel string
	Logger        logger.Logger
}

// NewMatchService 创建匹配服务实例
func NewMatchService(deps MatchServiceDeps) *MatchService {
	matchCfg := deps.MatchCfg
	if matchCfg == nil {
		matchCfg = outfit.DefaultConfig()
	}
	notifyChannel := deps.NotifyChannel
	if notifyChannel == "" {
		notifyChannel = MatchCompleteChannel
	}
	return &MatchService{
		engine:        deps.Engine,
		scorer:        deps.Scorer,
		trust:         deps.Trust,
		safety:        deps.Safety,
		signals:       deps.Signals,
		wardrobe:      deps.Wardrobe,
		scans:         deps.Scans,
		callback:      deps.Callback,
		notifier:      deps.Notifier,
		matchCfg:      matchCfg,
		callbackQueue: deps.CallbackQueue,
		notifyChannel: notifyChannel,
		log:           deps.Logger,
	}
}

// MatchInput 匹配输入
type MatchInput struct {
	RequestID      string
	ScanID         string
	AccountID      string
	Scan           outfit.ScanItem
	InlineWardrobe []outfit.Item // 非空时跳过 DB 查询（测试/预览）
}

// ExecuteMatch 执行匹配并完成落库、回调与通知
// 返回可重试错误时调用方应让消息重投；返回结果即该扫描的终态
func (s *MatchService) ExecuteMatch(ctx context.Context, input *MatchInput) (*model.MatchResultData, error) {
	// 1. 衣橱：优先 payload 内联，否则查库（DB 抖动走队列重试）
	wardrobe := input.InlineWardrobe
	if len(wardrobe) == 0 && s.wardrobe != nil {
		loaded, err := s.wardrobe.ListByAccount(ctx, input.AccountID)
		if err != nil {
			return nil, errorutil.RetriableWithDetails("load wardrobe failed", err.Error())
		}
		wardrobe = loaded
	}

	// 2. 扫描件信号补全（payload 未带时拉取，拉不到=信息不足）
	scan := input.Scan
	if scan.ScanID == "" {
		scan.ScanID = input.ScanID
	}
	if scan.Signals == nil && s.signals != nil {
		scan.Signals = s.signals.Fetch(ctx, scan.ID)
	}

	// 3. 打分：失败或全部不可用时降级为"未评估"，任务本身仍算成功
	evaluated := true
	var evals []outfit.PairEvaluation
	raw, err := s.scorer.EvaluatePairs(ctx, scan, wardrobe, s.matchCfg.IncludeLowTier)
	if err != nil {
		evaluated = false
		s.log.Warnf(ctx, "[MatchService] scorer failed, degrading to unevaluated result: %v", err)
	} else {
		evals = sanitizeEvaluations(ctx, raw, s.log)
		if len(raw) > 0 && len(evals) == 0 {
			evaluated = false
			s.log.Warnf(ctx, "[MatchService] scorer returned %d evaluations, none usable", len(raw))
		}
	}

	itemIndex := make(map[string]outfit.Item, len(wardrobe))
	for _, item := range wardrobe {
		itemIndex[item.ID] = item
	}

	// 4. 信任过滤（Pass A）：服务不可用 = 信息不足，合并时按 keep
	var trust *outfit.TrustOutcome
	if evaluated && s.trust != nil {
		trust = s.filterTrust(ctx, scan, itemIndex, evals)
	}

	// 5. 安全校验（Pass B）：灰度内对 trust-only 暂定 HIGH 的风险子集送检
	review := SafetyReview{}
	if evaluated && s.safety != nil {
		evalIndex := make(map[string]outfit.PairEvaluation, len(evals))
		for _, ev := range evals {
			if _, ok := evalIndex[ev.ItemID]; !ok {
				evalIndex[ev.ItemID] = ev
			}
		}
		provisional := outfit.BuildFinalizedMatches(evals, itemIndex, trust)
		review = s.safety.Review(ctx, input.AccountID, scan, provisional.HighFinal, evalIndex, itemIndex, trust)
	}

	// 6. 决策管线（合并 → 组装 → 协调过滤 → 排序 → 渲染契约）
	result := s.engine.Evaluate(ctx, outfit.EvaluateInput{
		Scan:        scan,
		Wardrobe:    wardrobe,
		Evaluations: evals,
		Evaluated:   evaluated,
		Trust:       trust,
		Safety:      review.Verdicts,
	})

	resultData := s.buildResultData(input.ScanID, evaluated, result, review)

	// 7. 落库（可重试；重投后整单重跑，更新是幂等的）
	//    记录不存在是例外：重投也救不回来，走终态失败
	if s.scans != nil {
		if err := s.scans.UpdateMatchResult(ctx, input.ScanID, resultData, entity.ScanStatusMatched, ""); err != nil {
			if errors.Is(err, model.ErrScanNotFound) {
				return nil, errorutil.NonRetriableWithDetails("scan record not found", err.Error())
			}
			return nil, errorutil.RetriableWithDetails("persist match result failed", err.Error())
		}
	}

	// 8. 回调（可重试）
	if s.callback != nil {
		if err := s.publishCallback(input, model.CallbackStatusSuccess, resultData, nil); err != nil {
			return nil, errorutil.RetriableWithDetails("publish callback failed", err.Error())
		}
	}

	// 9. 通知（尽力而为）：结果已落库，广播即"整页可刷新"信号
	s.notifyComplete(ctx, input, entity.ScanStatusMatched, resultData.UIState)

	return resultData, nil
}

// FailMatch 终态失败路径：标记 FAILED、补发失败回调与通知
// 只用于不可重试错误（消息即将转储死信），全程尽力而为不再返回错误
func (s *MatchService) FailMatch(ctx context.Context, input *MatchInput, cause error) {
	if s.scans != nil {
		if err := s.scans.UpdateMatchResult(ctx, input.ScanID, nil, entity.ScanStatusFailed, cause.Error()); err != nil {
			s.log.Errorf(ctx, "[MatchService] mark scan failed error: %v", err)
		}
	}

	if s.callback != nil {
		if err := s.publishCallback(input, model.CallbackStatusFailed, nil, cause); err != nil {
			s.log.Errorf(ctx, "[MatchService] failed-callback publish error: %v", err)
		}
	}

	s.notifyComplete(ctx, input, entity.ScanStatusFailed, "")
}

// filterTrust 构造并调用信任过滤：只送暂定 HIGH（非硬性不合格）的候选
func (s *MatchService) filterTrust(
	ctx context.Context,
	scan outfit.ScanItem,
	items map[string]outfit.Item,
	evals []outfit.PairEvaluation,
) *outfit.TrustOutcome {
	candidates := make([]styleapi.TrustItem, 0, len(evals))
	for _, ev := range evals {
		if ev.Tier != outfit.TierHigh || ev.HardFailReason != "" {
			continue
		}
		item, ok := items[ev.ItemID]
		if !ok {
			continue
		}
		candidates = append(candidates, styleapi.TrustItem{Item: item, Score: ev.Score})
	}
	if len(candidates) == 0 {
		return nil
	}

	outcome, err := s.trust.FilterTrust(ctx, scan, candidates)
	if err != nil {
		s.log.Warnf(ctx, "[MatchService] trust filter unavailable, defaulting to keep: %v", err)
		return nil
	}
	return outcome
}

// buildResultData 组装持久化与回调共用的结果体
func (s *MatchService) buildResultData(scanID string, evaluated bool, result *outfit.Result, review SafetyReview) *model.MatchResultData {
	data := &model.MatchResultData{
		ScanID:        scanID,
		Evaluated:     evaluated,
		UIState:       result.Render.UIState,
		HighMatches:   result.Matches.HighFinal,
		NearMatches:   result.Matches.NearFinal,
		HiddenCount:   len(result.Matches.Hidden),
		HighTab:       result.HighTab,
		NearTab:       result.NearTab,
		Render:        result.Render,
		Stats:         result.Stats,
		SafetyApplied: review.Applied,
		// 在灰度内却没有生效判定（且非 dry-run）：结果是暂定的 trust-only
		Provisional: review.InRollout && !review.Applied && !review.DryRun,
	}
	if review.InRollout && s.safety != nil {
		data.PolicyVersion = s.safety.PolicyVersion()
	}
	return data
}

// publishCallback 发布匹配回调消息
func (s *MatchService) publishCallback(input *MatchInput, status string, resultData *model.MatchResultData, cause error) error {
	callback := model.WardrobeMatchCallback{
		RequestID:   input.RequestID,
		ScanID:      input.ScanID,
		AccountID:   input.AccountID,
		Status:      status,
		MatchResult: resultData,
		ProcessedAt: time.Now().Unix(),
	}
	if cause != nil {
		callback.Error = cause.Error()
	}

	callbackJSON, err := json.Marshal(callback)
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}

	// ttl=0 表示永不过期, delay=0 表示立即可用
	if err := s.callback.Publish(s.callbackQueue, callbackJSON, 0, 0); err != nil {
		return fmt.Errorf("failed to publish callback: %w", err)
	}
	return nil
}

// notifyComplete 广播完成通知（失败只记日志）
func (s *MatchService) notifyComplete(ctx context.Context, input *MatchInput, status string, uiState outfit.UIState) {
	if s.notifier == nil {
		return
	}
	notification := &infraredis.MatchNotification{
		ScanID:    input.ScanID,
		AccountID: input.AccountID,
		Status:    status,
		UIState:   uiState,
		Timestamp: time.Now().Unix(),
	}
	if err := s.notifier.PublishMatchComplete(ctx, s.notifyChannel, notification); err != nil {
		s.log.Warnf(ctx, "[MatchService] completion notify failed: %v", err)
	}
}

// sanitizeEvaluations 清洗打分结果：丢弃缺 item_id 或档位非法的条目
func sanitizeEvaluations(ctx context.Context, evals []outfit.PairEvaluation, log logger.Logger) []outfit.PairEvaluation {
	valid := make([]outfit.PairEvaluation, 0, len(evals))
	dropped := 0
	for _, ev := range evals {
		if ev.ItemID == "" || !ev.Tier.Valid() {
			dropped++
			continue
		}
		valid = append(valid, ev)
	}
	if dropped > 0 {
		log.Warnf(ctx, "[MatchService] dropped %d malformed evaluations", dropped)
	}
	return valid
}
