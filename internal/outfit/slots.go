package outfit

import "sort"

// SlotCandidate 槽位候选（派生数据，不落库）
type SlotCandidate struct {
	ItemID string         `json:"item_id"`
	Slot   Slot           `json:"slot"`
	Tier   ConfidenceTier `json:"tier"`
	Score  float64        `json:"score"`
	Eval   PairEvaluation `json:"-"` // 来源评估
}

// SlotStats 槽位候选统计（空态归因用）
type SlotStats struct {
	Candidates   int     `json:"candidates"`     // 候选总数（截断前）
	BestScore    float64 `json:"best_score"`     // 最高分
	MediumOrUp   int     `json:"medium_or_up"`   // MEDIUM 及以上候选数
	HighCount    int     `json:"high_count"`     // HIGH 候选数
	CategorySeen bool    `json:"category_seen"`  // 衣橱中是否存在映射到该槽位的品类
}

// BuildSlotCandidates 把配对评估映射到套装槽位
// 跳过：占扫描件自身槽位的、品类无槽位的、未启用时的 LOW 档
// 槽内排序：tier 降序 → score 降序 → item id 升序（全序，确定性），截断到 PerSlotCap
func BuildSlotCandidates(
	evals []PairEvaluation,
	items map[string]Item,
	scanSlot Slot,
	scanHasSlot bool,
	cfg *Config,
) (map[Slot][]SlotCandidate, map[Slot]SlotStats) {
	groups := make(map[Slot][]SlotCandidate)
	stats := make(map[Slot]SlotStats)

	for _, ev := range evals {
		item, ok := items[ev.ItemID]
		if !ok {
			continue
		}

		slot, ok := SlotForCategory(item.Category)
		if !ok {
			continue // bags/accessories/unknown 不占槽位
		}
		if scanHasSlot && slot == scanSlot {
			continue // 不补扫描件自己的槽位
		}
		if ev.Tier == TierLow && !cfg.IncludeLowTier {
			continue
		}
		if !ev.Tier.Valid() {
			continue
		}

		groups[slot] = append(groups[slot], SlotCandidate{
			ItemID: ev.ItemID,
			Slot:   slot,
			Tier:   ev.Tier,
			Score:  ev.Score,
			Eval:   ev,
		})
	}

	for slot, cands := range groups {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].Tier.Rank() != cands[j].Tier.Rank() {
				return cands[i].Tier.Rank() > cands[j].Tier.Rank()
			}
			if cands[i].Score != cands[j].Score {
				return cands[i].Score > cands[j].Score
			}
			return cands[i].ItemID < cands[j].ItemID
		})

		st := SlotStats{Candidates: len(cands), CategorySeen: true}
		for _, c := range cands {
			if c.Score > st.BestScore {
				st.BestScore = c.Score
			}
			if c.Tier.Rank() >= TierMedium.Rank() {
				st.MediumOrUp++
			}
			if c.Tier == TierHigh {
				st.HighCount++
			}
		}
		stats[slot] = st

		if len(cands) > cfg.PerSlotCap {
			cands = cands[:cfg.PerSlotCap]
		}
		groups[slot] = cands
	}

	return groups, stats
}

// CensusCategories 衣橱品类普查
func CensusCategories(wardrobe []Item) map[Category]bool {
	census := make(map[Category]bool, len(wardrobe))
	for _, it := range wardrobe {
		census[it.Category] = true
	}
	return census
}

// slotCovered 衣橱普查中是否存在映射到该槽位的品类
func slotCovered(census map[Category]bool, slot Slot) bool {
	for c := range census {
		if s, ok := SlotForCategory(c); ok && s == slot {
			return true
		}
	}
	return false
}
