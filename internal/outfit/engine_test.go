package outfit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

func engineFixture() (ScanItem, []Item, []PairEvaluation, *TrustOutcome) {
	scan := ScanItem{
		Item:   styledItem("scan-1", CategoryTops, "boxy white tee", FormalityCasual),
		ScanID: "scan-1",
	}
	wardrobe := []Item{
		styledItem("b1", CategoryBottoms, "slim chinos", FormalitySmartCasual),
		styledItem("b2", CategoryBottoms, "linen trousers", FormalityCasual),
		styledItem("tr", CategorySkirts, "pleated midi skirt", FormalitySmartCasual),
		styledItem("s1", CategoryShoes, "white leather sneakers", FormalityCasual),
		styledItem("s2", CategoryShoes, "suede loafers", FormalitySmartCasual),
		styledItem("o1", CategoryOuterwear, "denim jacket", FormalityCasual),
		styledItem("hf", CategoryShoes, "spiked platform heels", FormalityFormal),
	}
	evals := []PairEvaluation{
		pairEval("b1", TierHigh, 0.92),
		pairEval("b2", TierMedium, 0.81),
		pairEval("tr", TierHigh, 0.88),
		pairEval("s1", TierHigh, 0.90),
		pairEval("s2", TierMedium, 0.78),
		pairEval("o1", TierMedium, 0.75),
		{ScanItemID: "scan-1", ItemID: "hf", Tier: TierHigh, Score: 0.95, HardFailReason: "category_conflict"},
	}
	trust := &TrustOutcome{
		Decisions: map[string]TrustDecision{
			"tr": {ItemID: "tr", Action: TrustDemoteToNear, Trace: &TrustTrace{ArchetypeDistance: ArchetypeMedium, FormalityGap: 1}},
		},
		Stats: TrustStats{Kept: 3, Demoted: 1},
	}
	return scan, wardrobe, evals, trust
}

func TestEngineEvaluateFullPipeline(t *testing.T) {
	t.Parallel()

	scan, wardrobe, evals, trust := engineFixture()
	engine := NewEngine(DefaultConfig(), logger.Nop{})

	res := engine.Evaluate(context.Background(), EvaluateInput{
		Scan:        scan,
		Wardrobe:    wardrobe,
		Evaluations: evals,
		Evaluated:   true,
		Trust:       trust,
	})

	// 归并分桶
	require.Equal(t, []string{"b1", "s1"}, matchIDs(res.Matches.HighFinal))
	require.Equal(t, []string{"tr", "b2", "s2", "o1"}, matchIDs(res.Matches.NearFinal))
	require.Equal(t, []string{"hf"}, matchIDs(res.Matches.Hidden))

	// 硬性不合格的单品绝不出现在任何组合里
	for _, tab := range []TabContent{res.HighTab, res.NearTab} {
		for _, combo := range tab.Outfits {
			for _, m := range combo.Members {
				require.NotEqual(t, "hf", m.ItemID)
			}
		}
	}

	// high tab：唯一全 HIGH 组合
	require.True(t, res.HighTab.Visible)
	require.Equal(t, []string{"b1+s1"}, comboIDs(res.HighTab.Outfits))

	// near tab：多样性两趟后换鞋组合优先
	require.True(t, res.NearTab.Visible)
	require.Len(t, res.NearTab.Outfits, 5)
	require.Equal(t, "s1+tr", res.NearTab.Outfits[0].ID)
	require.Equal(t, "b1+s2", res.NearTab.Outfits[1].ID)

	// 被信任过滤降档的 HIGH 不得撑起 HIGH 下限组合
	for _, combo := range res.NearTab.Outfits {
		if combo.Slots[SlotBottom] == "tr" {
			require.Equal(t, TierMedium, combo.TierFloor)
		}
	}

	// 外套只做加分项
	for _, combo := range append(res.HighTab.Outfits, res.NearTab.Outfits...) {
		require.NotNil(t, combo.Outerwear)
		require.Equal(t, "o1", combo.Outerwear.ItemID)
		require.NotContains(t, combo.ID, "o1")
	}

	// 渲染契约
	require.Equal(t, UIStateHigh, res.Render.UIState)
	require.Equal(t, MatchesList, res.Render.Matches.Variant)
	require.Equal(t, SuggestionModeGap, res.Render.Suggestions.Mode)
	// 衣橱缺 tops 与 dresses，HIGH 态下只剩未覆盖品类的气泡
	require.Len(t, res.Render.Suggestions.Bullets, 2)
	require.Equal(t, CategoryTops, res.Render.Suggestions.Bullets[0].Category)
	require.Equal(t, CategoryDresses, res.Render.Suggestions.Bullets[1].Category)
	require.False(t, res.Render.ShowRescanCTA)

	// 统计
	require.Equal(t, 7, res.Stats.EvalCount)
	require.Equal(t, 2, res.Stats.HighCount)
	require.Equal(t, 4, res.Stats.NearCount)
	require.Equal(t, 1, res.Stats.HiddenCount)
	require.Equal(t, 6, res.Stats.CombosGenerated)
	require.Equal(t, 0, res.Stats.CombosRejected)
}

func TestEngineEvaluateDeterministic(t *testing.T) {
	t.Parallel()

	scan, wardrobe, evals, trust := engineFixture()
	in := EvaluateInput{Scan: scan, Wardrobe: wardrobe, Evaluations: evals, Evaluated: true, Trust: trust}

	a := NewEngine(DefaultConfig(), logger.Nop{}).Evaluate(context.Background(), in)
	b := NewEngine(DefaultConfig(), logger.Nop{}).Evaluate(context.Background(), in)
	require.Equal(t, a, b)
}

func TestEngineSafetyVerdictReachesCombos(t *testing.T) {
	t.Parallel()

	scan, wardrobe, evals, trust := engineFixture()
	engine := NewEngine(DefaultConfig(), logger.Nop{})

	res := engine.Evaluate(context.Background(), EvaluateInput{
		Scan:        scan,
		Wardrobe:    wardrobe,
		Evaluations: evals,
		Evaluated:   true,
		Trust:       trust,
		Safety: map[string]SafetyVerdict{
			"s1": {ItemID: "s1", Action: SafetyHide, ReasonCode: "pairing_risk"},
			"b1": {ItemID: "b1", Action: SafetyDemote, ReasonCode: "style_mismatch"},
		},
	})

	// s1 隐藏、b1 降档后 high 桶归零
	require.Empty(t, res.Matches.HighFinal)
	require.Contains(t, matchIDs(res.Matches.Hidden), "s1")
	require.Contains(t, matchIDs(res.Matches.NearFinal), "b1")
	require.Equal(t, 2, res.Stats.SafetyDemoted)

	// 组合同步反映：s1 消失，b1 只能撑 MEDIUM 下限
	require.Empty(t, res.HighTab.Outfits)
	for _, combo := range res.NearTab.Outfits {
		for _, m := range combo.Members {
			require.NotEqual(t, "s1", m.ItemID)
		}
		require.Equal(t, TierMedium, combo.TierFloor)
	}

	require.Equal(t, UIStateMedium, res.Render.UIState)
}

func TestEngineUnevaluatedInput(t *testing.T) {
	t.Parallel()

	scan, wardrobe, _, _ := engineFixture()
	engine := NewEngine(DefaultConfig(), logger.Nop{})

	res := engine.Evaluate(context.Background(), EvaluateInput{
		Scan:     scan,
		Wardrobe: wardrobe,
	})

	require.Equal(t, UIStateLow, res.Render.UIState)
	require.False(t, res.Render.ShowRescanCTA) // 未评估=加载中，不出重扫
	require.Empty(t, res.HighTab.Outfits)
	require.False(t, res.HighTab.Visible)
	// 品类都在但还没有任何候选：按槽位阻塞归因
	require.Equal(t, EmptyReasonNoMatches, res.HighTab.EmptyReason)
}

func TestEngineScorerFailureDegradesToRescan(t *testing.T) {
	t.Parallel()

	scan, wardrobe, _, _ := engineFixture()
	engine := NewEngine(DefaultConfig(), logger.Nop{})

	// 打分失败：评估为空但 Evaluated=true（尝试已完成）
	res := engine.Evaluate(context.Background(), EvaluateInput{
		Scan:      scan,
		Wardrobe:  wardrobe,
		Evaluated: true,
	})

	require.Equal(t, UIStateLow, res.Render.UIState)
	require.Equal(t, MatchesHidden, res.Render.Matches.Variant)
	// 衣橱仍有品类缺口 → 建议区兜底，CTA 不出
	require.True(t, res.Render.Suggestions.Visible)
	require.False(t, res.Render.ShowRescanCTA)
}
