package outfit

import (
	"context"
	"fmt"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// 连贯性原因码
const (
	ReasonSportyHeels        = "S2_SPORTY_HEELS"
	ReasonFormalityClash     = "S1_FORMALITY_CLASH"
	ReasonTopBottomClash     = "TB1_TOP_BOTTOM_CLASH"
	ReasonFormalWithAthletic = "S3_FORMAL_WITH_ATHLETIC"
)

// CoherenceResult 连贯性检查结果
// 通过：penalty 0/1 + 原因码；拒绝：原因码 + 明细文本（telemetry 用）
type CoherenceResult struct {
	OK         bool     `json:"ok"`
	Penalty    int      `json:"penalty"`
	Reasons    []string `json:"reasons,omitempty"`
	RejectCode string   `json:"reject_code,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// CoherenceFilter 套装内部连贯性过滤
// 补查外部打分看不到的衣橱内互配（打分只看 扫描件↔衣橱件）
type CoherenceFilter struct {
	classifier StyleClassifier
	log        logger.Logger
}

// NewCoherenceFilter 创建连贯性过滤器
func NewCoherenceFilter(classifier StyleClassifier, log logger.Logger) *CoherenceFilter {
	return &CoherenceFilter{
		classifier: classifier,
		log:        log,
	}
}

// Check 单组合连贯性检查
// 规则按序执行，顺序是语义的一部分：
//  1. S2 无条件拒绝：运动下装/裙装 + 高跟鞋，无任何豁免
//  2. S1 有豁免拒绝：|band(下装)−band(鞋)| ≥ 2 —— 但命中 S3 模式（正式下装+运动鞋）时整条跳过，交给 S3 降档
//  3. TB1 有豁免拒绝：存在上装且 |band(上装)−band(下装)| ≥ 2
//  4. S3 只降不拒：正式下装 + 运动鞋 → penalty=1，组合仍通过
//
// 任一侧正式度缺失时相应规则不触发（无信号 ≠ 违规）
func (f *CoherenceFilter) Check(combo AssembledCombo, items map[string]Item) CoherenceResult {
	bottom, hasBottom := f.memberItem(combo, items, SlotBottom)
	if !hasBottom {
		bottom, hasBottom = f.memberItem(combo, items, SlotDress)
	}
	shoe, hasShoe := f.memberItem(combo, items, SlotShoes)
	top, hasTop := f.memberItem(combo, items, SlotTop)

	exception := f.hasExceptionVibe(combo, items)

	// 1. S2：运动下装 + 高跟鞋，豁免标记也救不回来
	if hasBottom && hasShoe &&
		f.classifier.IsSportyGarment(bottom) && f.classifier.IsHeelShoe(shoe) {
		return CoherenceResult{
			RejectCode: ReasonSportyHeels,
			Detail:     fmt.Sprintf("sporty %q with heel shoe %q", bottom.Label, shoe.Label),
		}
	}

	bottomBand := FormalityBand(bottom.Formality())
	shoeBand := FormalityBand(shoe.Formality())
	topBand := FormalityBand(top.Formality())

	// S3 模式：正式下装 + 运动鞋（命中则跳过 S1，改为降档处理）
	s3Pattern := hasBottom && hasShoe &&
		bottomBand != nil && *bottomBand == BandFormal &&
		f.classifier.IsAthleticShoe(shoe)

	// 2. S1：下装与鞋正式度断层
	if !s3Pattern && hasBottom && hasShoe && bottomBand != nil && shoeBand != nil {
		if gap := bandGap(*bottomBand, *shoeBand); gap >= 2 && !exception {
			return CoherenceResult{
				RejectCode: ReasonFormalityClash,
				Detail:     fmt.Sprintf("formality gap %d between %q and %q", gap, bottom.Label, shoe.Label),
			}
		}
	}

	// 3. TB1：上装与下装正式度断层
	if hasTop && hasBottom && topBand != nil && bottomBand != nil {
		if gap := bandGap(*topBand, *bottomBand); gap >= 2 && !exception {
			return CoherenceResult{
				RejectCode: ReasonTopBottomClash,
				Detail:     fmt.Sprintf("formality gap %d between %q and %q", gap, top.Label, bottom.Label),
			}
		}
	}

	// 4. S3：正式下装配运动鞋，接受但降档
	if s3Pattern {
		return CoherenceResult{
			OK:      true,
			Penalty: 1,
			Reasons: []string{ReasonFormalWithAthletic},
		}
	}

	return CoherenceResult{OK: true}
}

// Filter 批量过滤
// 返回通过的组合（penalty 已回填）、id→penalty 映射、按原因码分组的拒绝计数
// 拒绝计数用于盯关键词启发式的误杀率
func (f *CoherenceFilter) Filter(
	ctx context.Context,
	combos []AssembledCombo,
	items map[string]Item,
) ([]AssembledCombo, map[string]int, map[string]int) {
	passing := make([]AssembledCombo, 0, len(combos))
	penalties := make(map[string]int, len(combos))
	rejections := make(map[string]int)

	for _, combo := range combos {
		res := f.Check(combo, items)
		if !res.OK {
			rejections[res.RejectCode]++
			f.log.Debugf(ctx, "[Coherence] combo rejected: id=%s, code=%s, detail=%s",
				combo.ID, res.RejectCode, res.Detail)
			continue
		}

		combo.Penalty = res.Penalty
		combo.StyleNotes = res.Reasons
		passing = append(passing, combo)
		penalties[combo.ID] = res.Penalty
	}

	return passing, penalties, rejections
}

// memberItem 取组合中某槽位成员对应的衣橱单品
func (f *CoherenceFilter) memberItem(combo AssembledCombo, items map[string]Item, slot Slot) (Item, bool) {
	id, ok := combo.Slots[slot]
	if !ok {
		return Item{}, false
	}
	item, ok := items[id]
	return item, ok
}

// hasExceptionVibe 组合中任一成员带豁免风格标记
func (f *CoherenceFilter) hasExceptionVibe(combo AssembledCombo, items map[string]Item) bool {
	for _, m := range combo.Members {
		if item, ok := items[m.ItemID]; ok && f.classifier.HasExceptionVibe(item) {
			return true
		}
	}
	return false
}

// bandGap 正式度区间差
func bandGap(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
