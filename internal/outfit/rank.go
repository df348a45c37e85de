package outfit

import (
	"context"
	"sort"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// RankCombos 组合全排序（严格全序，不留平局）
// tierFloor 降序 → penalty 升序 → （双方 tierFloor 均为 MEDIUM 时）MEDIUM 成员数升序 → avgScore 降序 → id 升序
// penalties 缺项视为过期 id（组合不在当前评估集里）：告警并保守剔除，不猜
func RankCombos(ctx context.Context, combos []AssembledCombo, penalties map[string]int, log logger.Logger) []AssembledCombo {
	ranked := make([]AssembledCombo, 0, len(combos))
	for _, c := range combos {
		if _, ok := penalties[c.ID]; !ok {
			log.Warnf(ctx, "[Rank] stale combo id not in penalty map, excluded: %s", c.ID)
			continue
		}
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]

		if a.TierFloor.Rank() != b.TierFloor.Rank() {
			return a.TierFloor.Rank() > b.TierFloor.Rank()
		}
		if a.Penalty != b.Penalty {
			return a.Penalty < b.Penalty
		}
		if a.TierFloor == TierMedium && b.TierFloor == TierMedium {
			if am, bm := a.MediumMemberCount(), b.MediumMemberCount(); am != bm {
				return am < bm
			}
		}
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		return a.ID < b.ID
	})

	return ranked
}

// DiversityKey 多样性槽位上的成员 id
// 扫描件是鞋 → 看 BOTTOM/DRESS；其余 → 看 SHOES。槽位缺席返回空串（恒可入选）
func DiversityKey(combo AssembledCombo, scanSlot Slot, scanHasSlot bool) string {
	if scanHasSlot && scanSlot == SlotShoes {
		if id, ok := combo.Slots[SlotBottom]; ok {
			return id
		}
		if id, ok := combo.Slots[SlotDress]; ok {
			return id
		}
		return ""
	}
	if id, ok := combo.Slots[SlotShoes]; ok {
		return id
	}
	return ""
}

// SelectDiverse 两趟多样性选择，至多返回 quota 个
// 第一趟只收多样性槽位 id 未出现过的组合（槽位缺席恒可入选）；
// 第二趟按已排序顺序用剩余组合补足配额，允许重复
func SelectDiverse(ranked []AssembledCombo, scanSlot Slot, scanHasSlot bool, quota int) []AssembledCombo {
	if quota <= 0 || len(ranked) == 0 {
		return nil
	}

	selected := make([]AssembledCombo, 0, quota)
	picked := make(map[string]bool, len(ranked)) // combo id 已入选
	seen := make(map[string]bool)                // 多样性槽位 id 已出现

	// 第一趟：新面孔优先
	for _, c := range ranked {
		if len(selected) >= quota {
			return selected
		}
		key := DiversityKey(c, scanSlot, scanHasSlot)
		if key != "" && seen[key] {
			continue
		}
		if key != "" {
			seen[key] = true
		}
		selected = append(selected, c)
		picked[c.ID] = true
	}

	// 第二趟：配额未满则按序补位
	for _, c := range ranked {
		if len(selected) >= quota {
			break
		}
		if picked[c.ID] {
			continue
		}
		selected = append(selected, c)
		picked[c.ID] = true
	}

	return selected
}
