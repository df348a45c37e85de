package outfit

import (
	"context"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// Engine 决策管线门面：归并 → 组装 → 协调过滤 → 排序 → 渲染契约
// 全程纯内存计算，相同输入必产出相同 Result（字节级），可离线回放
type Engine struct {
	cfg       *Config
	patterns  *PatternCache
	coherence *CoherenceFilter
	log       logger.Logger
}

// NewEngine 使用内置关键词分类器构造
func NewEngine(cfg *Config, log logger.Logger) *Engine {
	return NewEngineWithClassifier(cfg, NewKeywordClassifier(DefaultKeywordRules()), log)
}

// NewEngineWithClassifier 注入自定义风格分类器（测试或后续模型替换用）
func NewEngineWithClassifier(cfg *Config, classifier StyleClassifier, log logger.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.normalize()
	return &Engine{
		cfg:       cfg,
		patterns:  NewPatternCache(),
		coherence: NewCoherenceFilter(classifier, log),
		log:       log,
	}
}

// ResetPatternCache 清空档位模式缓存（配置热更后调用）
func (e *Engine) ResetPatternCache() {
	e.patterns.Reset()
}

// EvaluateInput 管线输入：上游打分与裁决的汇合点
type EvaluateInput struct {
	Scan        ScanItem          // 扫描件
	Wardrobe    []Item            // 衣橱全量（含未参评件，品类普查用）
	Evaluations []PairEvaluation  // 打分服务的两两评估
	Evaluated   bool              // 打分是否已执行完（false=加载中）
	Trust       *TrustOutcome     // 信任过滤结论，可为 nil（降级为全 keep）
	Safety      map[string]SafetyVerdict // 安全复核裁决，可为 nil
}

// PipelineStats 管线统计（日志与回归观测用）
type PipelineStats struct {
	EvalCount        int            `json:"eval_count"`
	HighCount        int            `json:"high_count"`
	NearCount        int            `json:"near_count"`
	HiddenCount      int            `json:"hidden_count"`
	SafetyDemoted    int            `json:"safety_demoted"`
	CombosGenerated  int            `json:"combos_generated"`
	CombosRejected   int            `json:"combos_rejected"`
	RejectionsByCode map[string]int `json:"rejections_by_code,omitempty"`
	PartitionRepairs int            `json:"partition_repairs"`
}

// Result 管线输出：最终匹配分桶 + 两个 tab + 渲染契约
type Result struct {
	Matches *FinalizedMatches `json:"matches"`
	HighTab TabContent        `json:"high_tab"`
	NearTab TabContent        `json:"near_tab"`
	Render  RenderModel       `json:"render"`
	Stats   PipelineStats     `json:"stats"`
}

// Evaluate 跑完整条决策管线
func (e *Engine) Evaluate(ctx context.Context, in EvaluateInput) *Result {
	items := indexItems(in.Wardrobe)

	// 1. 三路归并：打分档位 × 信任动作 × 安全裁决，只降不升
	fm := BuildFinalizedMatches(in.Evaluations, items, in.Trust)
	demoted := fm.ApplySafetyVerdicts(ctx, in.Safety, e.log)
	repairs := fm.VerifyPartition(ctx, e.log)

	return e.compose(ctx, in, fm, items, demoted, repairs)
}

// compose 在既定归并结果上跑后半程（安全复核异步改写后复用）
func (e *Engine) compose(
	ctx context.Context,
	in EvaluateInput,
	fm *FinalizedMatches,
	items map[string]Item,
	safetyDemoted int,
	partitionRepairs int,
) *Result {
	scanSlot, scanHasSlot := SlotForCategory(in.Scan.Category)

	// 2. 槽位候选：隐藏件绝不进组装；被降档的 HIGH 按 MEDIUM 参与
	effEvals := effectiveEvaluations(in.Evaluations, fm)
	groups, slotStats := BuildSlotCandidates(effEvals, items, scanSlot, scanHasSlot, e.cfg)

	// 3. 组合生成 + 外套加成（不参与 id/下限/均分）
	combos := GenerateCombos(groups, scanSlot, scanHasSlot, e.patterns, e.cfg)
	DecorateOuterwear(combos, groups[SlotOuterwear], scanSlot, scanHasSlot)
	generated := len(combos)

	// 4. 协调过滤 → 全序排序
	kept, penalties, rejections := e.coherence.Filter(ctx, combos, items)
	ranked := RankCombos(ctx, kept, penalties, e.log)

	// 5. 分桶：HIGH 下限全量进 high tab；其余走多样性两趟后进 near tab
	var highOutfits, nearPool []AssembledCombo
	for _, c := range ranked {
		if c.TierFloor == TierHigh {
			highOutfits = append(highOutfits, c)
		} else {
			nearPool = append(nearPool, c)
		}
	}
	nearOutfits := SelectDiverse(nearPool, scanSlot, scanHasSlot, e.cfg.NearOutfitQuota)

	// 6. 组 tab 与渲染契约
	census := CensusCategories(in.Wardrobe)
	tracks := TracksForScan(scanSlot, scanHasSlot)
	highTab := e.buildTab(ctx, BucketHigh, fm.HighFinal, highOutfits, tracks, census, slotStats)
	nearTab := e.buildTab(ctx, BucketNear, fm.NearFinal, nearOutfits, tracks, census, slotStats)

	render := BuildRenderModel(RenderInput{
		Evaluated:     in.Evaluated,
		WardrobeCount: len(in.Wardrobe),
		HighCount:     len(fm.HighFinal),
		NearCount:     len(fm.NearFinal),
		ModeA:         BuildWardrobeGapBullets(census, e.cfg.MaxSuggestions),
		ModeB:         BuildStylingTipBullets(fm.NearFinal, e.cfg.MaxSuggestions),
		Covered:       census,
	})

	rejected := 0
	for _, n := range rejections {
		rejected += n
	}
	return &Result{
		Matches: fm,
		HighTab: highTab,
		NearTab: nearTab,
		Render:  render,
		Stats: PipelineStats{
			EvalCount:        len(in.Evaluations),
			HighCount:        len(fm.HighFinal),
			NearCount:        len(fm.NearFinal),
			HiddenCount:      len(fm.Hidden),
			SafetyDemoted:    safetyDemoted,
			CombosGenerated:  generated,
			CombosRejected:   rejected,
			RejectionsByCode: rejections,
			PartitionRepairs: partitionRepairs,
		},
	}
}

// buildTab 组单个 tab：可见性只看核心品类匹配数，套装为空时归因
func (e *Engine) buildTab(
	ctx context.Context,
	bucket DisplayBucket,
	matches []MatchedItem,
	outfits []AssembledCombo,
	tracks []ComboTrack,
	census map[Category]bool,
	slotStats map[Slot]SlotStats,
) TabContent {
	tab := TabContent{
		Bucket:  bucket,
		Visible: countCoreMatches(matches) > 0,
		Matches: matches,
		Outfits: outfits,
	}
	if len(outfits) == 0 {
		reason, hint := classifyEmptyOutfits(bucket, tracks, census, slotStats, e.cfg)
		tab.EmptyReason = reason
		tab.Hint = hint
		if reason == EmptyReasonNoCombos && tab.Visible {
			e.log.Warnf(ctx, "[Engine] %s tab has core matches but zero outfits, unclassified", bucket)
		}
	}
	return tab
}

// effectiveEvaluations 组装前按归并结果改写评估档位：
// 隐藏件剔除；终局 NEAR 但原始 HIGH 的压成 MEDIUM（降档件不得撑起 HIGH 下限组合）
func effectiveEvaluations(evals []PairEvaluation, fm *FinalizedMatches) []PairEvaluation {
	out := make([]PairEvaluation, 0, len(evals))
	for _, ev := range evals {
		tier, placed := fm.Tiers[ev.ItemID]
		if placed && tier == FinalTierHidden {
			continue
		}
		if placed && tier == FinalTierNear && ev.Tier == TierHigh {
			ev.Tier = TierMedium
		}
		out = append(out, ev)
	}
	return out
}

// indexItems 衣橱按 id 建索引
func indexItems(wardrobe []Item) map[string]Item {
	idx := make(map[string]Item, len(wardrobe))
	for _, it := range wardrobe {
		idx[it.ID] = it
	}
	return idx
}
