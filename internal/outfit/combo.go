package outfit

import (
	"sort"
	"strings"
)

// 组合生成轨道名
const (
	TrackStandard = "standard" // TOP/BOTTOM/SHOES 体系
	TrackDress    = "dress"    // DRESS 体系（裙装替代上+下）
)

// ComboTrack 组合生成轨道：一组必填槽位
type ComboTrack struct {
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// TracksForScan 按扫描件槽位解析生成轨道
// 扫描件是 TOP/BOTTOM/DRESS 时两轨互斥（只跑其一）；SHOES 或无槽位时两轨都跑
func TracksForScan(scanSlot Slot, scanHasSlot bool) []ComboTrack {
	if scanHasSlot {
		switch scanSlot {
		case SlotTop:
			return []ComboTrack{{Name: TrackStandard, Slots: []Slot{SlotBottom, SlotShoes}}}
		case SlotBottom:
			return []ComboTrack{{Name: TrackStandard, Slots: []Slot{SlotTop, SlotShoes}}}
		case SlotDress:
			return []ComboTrack{{Name: TrackDress, Slots: []Slot{SlotShoes}}}
		case SlotShoes:
			return []ComboTrack{
				{Name: TrackStandard, Slots: []Slot{SlotTop, SlotBottom}},
				{Name: TrackDress, Slots: []Slot{SlotDress}},
			}
		}
	}
	// 扫描件是外套或不占槽位：补全整套
	return []ComboTrack{
		{Name: TrackStandard, Slots: []Slot{SlotTop, SlotBottom, SlotShoes}},
		{Name: TrackDress, Slots: []Slot{SlotDress, SlotShoes}},
	}
}

// AssembledCombo 组装好的套装组合
type AssembledCombo struct {
	ID        string          `json:"id"`    // 成员 id 排序后拼接，同一成员集恒同 id
	Track     string          `json:"track"` // 生成轨道
	Slots     map[Slot]string `json:"slots"` // 槽位→成员 id（不含 OUTERWEAR）
	Members   []SlotCandidate `json:"members"`
	TierFloor ConfidenceTier  `json:"tier_floor"` // 成员最低档
	AvgScore  float64         `json:"avg_score"`  // 成员均分
	Reasons   []string        `json:"reasons,omitempty"`
	Outerwear *SlotCandidate  `json:"outerwear,omitempty"` // 加分项，不影响 id/tierFloor/avgScore

	// 连贯性过滤回填
	Penalty    int      `json:"penalty"`
	StyleNotes []string `json:"style_notes,omitempty"` // 连贯性原因码（如 S3）
}

// MediumMemberCount MEDIUM 档成员数（MEDIUM tierFloor 内的排序键）
func (c *AssembledCombo) MediumMemberCount() int {
	n := 0
	for _, m := range c.Members {
		if m.Tier == TierMedium {
			n++
		}
	}
	return n
}

// comboID 成员 id 排序后拼接，与发现顺序无关
func comboID(members []SlotCandidate) string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ItemID
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}

// GenerateCombos 逐轨道生成套装组合后合并
// 每条轨道独立受 MaxCombosPerTrack 限制；轨道内按模式质量序穷举，好模式先出完
func GenerateCombos(
	groups map[Slot][]SlotCandidate,
	scanSlot Slot,
	scanHasSlot bool,
	patterns *PatternCache,
	cfg *Config,
) []AssembledCombo {
	var combos []AssembledCombo
	for _, track := range TracksForScan(scanSlot, scanHasSlot) {
		combos = append(combos, generateTrack(track, groups, patterns, cfg)...)
	}
	return combos
}

// generateTrack 单轨道生成
func generateTrack(
	track ComboTrack,
	groups map[Slot][]SlotCandidate,
	patterns *PatternCache,
	cfg *Config,
) []AssembledCombo {
	k := len(track.Slots)
	if k == 0 {
		return nil
	}

	var combos []AssembledCombo
	for _, pattern := range patterns.Get(k, cfg.IncludeLowTier) {
		// 1. 把每个槽位的候选过滤到模式要求的档位
		filtered := make([][]SlotCandidate, k)
		empty := false
		for i, slot := range track.Slots {
			for _, cand := range groups[slot] {
				if cand.Tier == pattern[i] {
					filtered[i] = append(filtered[i], cand)
				}
			}
			if len(filtered[i]) == 0 {
				empty = true
				break
			}
		}
		if empty {
			continue
		}

		// 2. 笛卡尔积（确定性顺序），拒绝同一单品占两个槽位
		idx := make([]int, k)
		for {
			members := make([]SlotCandidate, k)
			for i := range idx {
				members[i] = filtered[i][idx[i]]
			}

			if !reusesItem(members) {
				combos = append(combos, assembleCombo(track, members, cfg))
				if len(combos) >= cfg.MaxCombosPerTrack {
					return combos
				}
			}

			// 进位式推进：最后一位先动
			pos := k - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < len(filtered[pos]) {
					break
				}
				idx[pos] = 0
				pos--
			}
			if pos < 0 {
				break
			}
		}
	}

	return combos
}

// reusesItem 是否存在同一单品占两个槽位
func reusesItem(members []SlotCandidate) bool {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if members[i].ItemID == members[j].ItemID {
				return true
			}
		}
	}
	return false
}

// assembleCombo 由成员组装组合并计算派生字段
func assembleCombo(track ComboTrack, members []SlotCandidate, cfg *Config) AssembledCombo {
	slots := make(map[Slot]string, len(members))
	floor := members[0].Tier
	sum := 0.0
	for _, m := range members {
		slots[m.Slot] = m.ItemID
		sum += m.Score
		if m.Tier.Rank() < floor.Rank() {
			floor = m.Tier
		}
	}

	return AssembledCombo{
		ID:        comboID(members),
		Track:     track.Name,
		Slots:     slots,
		Members:   members,
		TierFloor: floor,
		AvgScore:  sum / float64(len(members)),
		Reasons:   collectReasons(members, cfg.MaxReasons),
	}
}

// collectReasons 按槽位顺序收集允许透出的解释，去重并截断到上限
func collectReasons(members []SlotCandidate, max int) []string {
	var reasons []string
	seen := make(map[string]bool)
	for _, m := range members {
		if !m.Eval.AllowExplanation || m.Eval.Explanation == "" {
			continue
		}
		if seen[m.Eval.Explanation] {
			continue
		}
		seen[m.Eval.Explanation] = true
		reasons = append(reasons, m.Eval.Explanation)
		if len(reasons) >= max {
			break
		}
	}
	return reasons
}

// DecorateOuterwear 给每个组合附上最优外套候选
// 外套只是加分项：不进 id，不动 tierFloor/avgScore；扫描件本身是外套或无候选时整体跳过
func DecorateOuterwear(combos []AssembledCombo, outerwear []SlotCandidate, scanSlot Slot, scanHasSlot bool) {
	if scanHasSlot && scanSlot == SlotOuterwear {
		return
	}
	if len(outerwear) == 0 {
		return
	}

	// 候选列表已按 tier 降序 → score 降序 → id 升序排好，取第一个
	best := outerwear[0]
	for i := range combos {
		bonus := best
		combos[i].Outerwear = &bonus
	}
}
