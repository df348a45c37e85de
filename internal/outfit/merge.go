package outfit

import (
	"context"
	"sort"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// MatchedItem 最终匹配项（按桶归属）
type MatchedItem struct {
	ItemID      string         `json:"item_id"`
	Category    Category       `json:"category"`
	Tier        ConfidenceTier `json:"tier"` // 打分档位（非最终档位）
	Score       float64        `json:"score"`
	Explanation string         `json:"explanation,omitempty"`
	CapReasons  []string       `json:"cap_reasons,omitempty"`
}

// FinalizedMatches 合并结果：三个互斥桶 + 按单品的动作/最终档位映射
// 不变量：每个单品 id 恰好出现在一个桶里，且 action/tier 与桶归属一致
type FinalizedMatches struct {
	HighFinal []MatchedItem `json:"high_final"`
	NearFinal []MatchedItem `json:"near_final"`
	Hidden    []MatchedItem `json:"hidden"`

	Actions map[string]MatchAction `json:"actions"`
	Tiers   map[string]FinalTier   `json:"tiers"`
}

// BuildFinalizedMatches 由原始评估 + 信任过滤（Pass A）构建匹配桶
// 硬性不合格直接隐藏；HIGH 档走 Pass A 动作（trust 为 nil 或缺项=信息不足，按 keep）；
// MEDIUM 档绕过两道过滤直进 near（对已有归属去重）；LOW 档不进匹配桶（只在组合生成里用）
func BuildFinalizedMatches(evals []PairEvaluation, items map[string]Item, trust *TrustOutcome) *FinalizedMatches {
	fm := &FinalizedMatches{
		HighFinal: make([]MatchedItem, 0),
		NearFinal: make([]MatchedItem, 0),
		Hidden:    make([]MatchedItem, 0),
		Actions:   make(map[string]MatchAction),
		Tiers:     make(map[string]FinalTier),
	}

	for _, ev := range evals {
		if _, placed := fm.Tiers[ev.ItemID]; placed {
			continue // 同一单品只取首个归属
		}

		mi := matchedItem(ev, items)

		// 硬性不合格：无视两道过滤，直接隐藏
		if ev.HardFailReason != "" {
			fm.place(mi, ActionHide, FinalTierHidden)
			continue
		}

		switch ev.Tier {
		case TierHigh:
			action := TrustKeep // 信息不足默认保留
			if d, ok := trust.Decision(ev.ItemID); ok {
				action = d.Action
			}
			switch action {
			case TrustDemoteToNear:
				fm.place(mi, ActionDemote, FinalTierNear)
			case TrustHide:
				fm.place(mi, ActionHide, FinalTierHidden)
			default:
				fm.place(mi, ActionKeep, FinalTierHigh)
			}

		case TierMedium:
			fm.place(mi, ActionKeep, FinalTierNear)
		}
	}

	fm.sortBuckets()
	return fm
}

// ApplySafetyVerdicts 套用安全校验（Pass B）判定，严格单调：hide > demote > keep，只降不升
// keep 判定是空操作；指向未归属单品的判定按过期丢弃并告警
// 返回实际降档的单品数
func (fm *FinalizedMatches) ApplySafetyVerdicts(ctx context.Context, verdicts map[string]SafetyVerdict, log logger.Logger) int {
	if len(verdicts) == 0 {
		return 0
	}

	// 排序遍历，保证多次执行产生相同日志顺序
	ids := make([]string, 0, len(verdicts))
	for id := range verdicts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	demoted := 0
	for _, id := range ids {
		v := verdicts[id]

		current, ok := fm.Tiers[id]
		if !ok {
			log.Warnf(ctx, "[Merge] safety verdict for unplaced item, discarded: item=%s, action=%s", id, v.Action)
			continue
		}

		var target FinalTier
		switch v.Action {
		case SafetyHide:
			target = FinalTierHidden
		case SafetyDemote:
			target = FinalTierNear
		case SafetyKeep:
			continue // 永不升档
		default:
			log.Warnf(ctx, "[Merge] unknown safety action, discarded: item=%s, action=%s", id, v.Action)
			continue
		}

		// 单调合并：目标档不低于当前档时不动
		if target.rank() >= current.rank() {
			continue
		}

		mi, found := fm.takeItem(id, current)
		if !found {
			log.Warnf(ctx, "[Merge] bucket/tier disagree for item, excluded: item=%s, tier=%s", id, current)
			delete(fm.Tiers, id)
			delete(fm.Actions, id)
			continue
		}

		switch target {
		case FinalTierNear:
			fm.NearFinal = append(fm.NearFinal, mi)
			fm.Actions[id] = ActionDemote
		case FinalTierHidden:
			fm.Hidden = append(fm.Hidden, mi)
			fm.Actions[id] = ActionHide
		}
		fm.Tiers[id] = target
		demoted++
	}

	fm.sortBuckets()
	return demoted
}

// VerifyPartition 校验三桶互斥不变量
// 发现重复归属时保守处理：保留更低（更保守）的归属，剔除较高桶里的那份；返回修复次数
func (fm *FinalizedMatches) VerifyPartition(ctx context.Context, log logger.Logger) int {
	repairs := 0
	seen := make(map[string]bool)

	// 从最保守的桶向上走，先占者（低档位）保留
	keep := func(bucket []MatchedItem, tier FinalTier) []MatchedItem {
		out := bucket[:0]
		for _, mi := range bucket {
			if seen[mi.ItemID] {
				log.Warnf(ctx, "[Merge] partition violation: item=%s duplicated in %s bucket, excluded", mi.ItemID, tier)
				repairs++
				continue
			}
			seen[mi.ItemID] = true
			out = append(out, mi)
		}
		return out
	}

	fm.Hidden = keep(fm.Hidden, FinalTierHidden)
	fm.NearFinal = keep(fm.NearFinal, FinalTierNear)
	fm.HighFinal = keep(fm.HighFinal, FinalTierHigh)

	return repairs
}

// place 归桶并登记动作/档位
func (fm *FinalizedMatches) place(mi MatchedItem, action MatchAction, tier FinalTier) {
	switch tier {
	case FinalTierHigh:
		fm.HighFinal = append(fm.HighFinal, mi)
	case FinalTierNear:
		fm.NearFinal = append(fm.NearFinal, mi)
	case FinalTierHidden:
		fm.Hidden = append(fm.Hidden, mi)
	}
	fm.Actions[mi.ItemID] = action
	fm.Tiers[mi.ItemID] = tier
}

// takeItem 从指定档位的桶中摘出单品
func (fm *FinalizedMatches) takeItem(id string, tier FinalTier) (MatchedItem, bool) {
	var bucket *[]MatchedItem
	switch tier {
	case FinalTierHigh:
		bucket = &fm.HighFinal
	case FinalTierNear:
		bucket = &fm.NearFinal
	case FinalTierHidden:
		bucket = &fm.Hidden
	default:
		return MatchedItem{}, false
	}

	for i, mi := range *bucket {
		if mi.ItemID == id {
			*bucket = append((*bucket)[:i], (*bucket)[i+1:]...)
			return mi, true
		}
	}
	return MatchedItem{}, false
}

// sortBuckets 桶内排序：档位降序 → 分数降序 → id 升序（输出确定性）
func (fm *FinalizedMatches) sortBuckets() {
	for _, bucket := range [][]MatchedItem{fm.HighFinal, fm.NearFinal, fm.Hidden} {
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].Tier.Rank() != bucket[j].Tier.Rank() {
				return bucket[i].Tier.Rank() > bucket[j].Tier.Rank()
			}
			if bucket[i].Score != bucket[j].Score {
				return bucket[i].Score > bucket[j].Score
			}
			return bucket[i].ItemID < bucket[j].ItemID
		})
	}
}

// matchedItem 由评估构造匹配项（解释透出受许可位控制）
func matchedItem(ev PairEvaluation, items map[string]Item) MatchedItem {
	category := CategoryUnknown
	if item, ok := items[ev.ItemID]; ok {
		category = item.Category
	}

	mi := MatchedItem{
		ItemID:     ev.ItemID,
		Category:   category,
		Tier:       ev.Tier,
		Score:      ev.Score,
		CapReasons: ev.CapReasons,
	}
	if ev.AllowExplanation {
		mi.Explanation = ev.Explanation
	}
	return mi
}
