package outfit

import "fmt"

// UIState 整体展示态
type UIState string

const (
	UIStateHigh   UIState = "HIGH"
	UIStateMedium UIState = "MEDIUM"
	UIStateLow    UIState = "LOW"
)

// MatchesVariant 匹配区变体（封闭决策表）
type MatchesVariant string

const (
	MatchesList     MatchesVariant = "matches"
	MatchesEmptyCTA MatchesVariant = "empty_cta"
	MatchesHidden   MatchesVariant = "hidden"
)

// SuggestionMode 建议区模式
type SuggestionMode string

const (
	SuggestionModeGap  SuggestionMode = "wardrobe_gap" // mode A：按衣橱品类缺口
	SuggestionModeTips SuggestionMode = "styling_tips" // mode B：按 near 匹配的压分原因
)

// DisplayBucket 展示桶（tab）
type DisplayBucket string

const (
	BucketHigh DisplayBucket = "high"
	BucketNear DisplayBucket = "near"
)

// OutfitEmptyReason 空套装归因（按优先级）
type OutfitEmptyReason string

const (
	EmptyReasonMissingCorePieces OutfitEmptyReason = "missing_core_pieces"
	EmptyReasonNoMatches         OutfitEmptyReason = "has_items_but_no_matches"
	EmptyReasonNoHighTierPieces  OutfitEmptyReason = "missing_high_tier_core_pieces"
	EmptyReasonNoCombos          OutfitEmptyReason = "has_core_pieces_but_no_combos" // 残差，记异常日志，不致命
)

// SuggestionBullet 建议气泡
type SuggestionBullet struct {
	Category   Category `json:"category,omitempty"`    // mode A：对应的缺口品类
	ReasonCode string   `json:"reason_code,omitempty"` // mode B：来源压分原因码
	Text       string   `json:"text"`
}

// MatchesSection 匹配区
type MatchesSection struct {
	Variant MatchesVariant `json:"variant"`
	Visible bool           `json:"visible"` // 恒等于 variant != hidden，派生值
}

// SuggestionsSection 建议区
type SuggestionsSection struct {
	Mode    SuggestionMode     `json:"mode"`
	Bullets []SuggestionBullet `json:"bullets"`
	Visible bool               `json:"visible"`
}

// RenderModel 渲染契约：展示层只准在这上面做分支，不得用原始计数重算可见性
type RenderModel struct {
	UIState       UIState            `json:"ui_state"`
	Matches       MatchesSection     `json:"matches_section"`
	Suggestions   SuggestionsSection `json:"suggestions_section"`
	ShowRescanCTA bool               `json:"show_rescan_cta"`
}

// TabContent 单 tab 内容
type TabContent struct {
	Bucket      DisplayBucket     `json:"bucket"`
	Visible     bool              `json:"visible"` // 只看核心品类匹配数
	Matches     []MatchedItem     `json:"matches"`
	Outfits     []AssembledCombo  `json:"outfits"`
	EmptyReason OutfitEmptyReason `json:"empty_reason,omitempty"` // 仅套装为空时
	Hint        string            `json:"hint,omitempty"`         // 给用户看的补货提示
}

// RenderInput 状态机输入
// evaluated=false 表示打分尚未完成（加载中），此时不出重扫 CTA；
// 打分失败产出的"未评估"结果仍以 evaluated=true 进入，降级为重扫 CTA 态
type RenderInput struct {
	Evaluated     bool
	WardrobeCount int
	HighCount     int
	NearCount     int
	ModeA         []SuggestionBullet
	ModeB         []SuggestionBullet
	Covered       map[Category]bool // 衣橱品类普查（HIGH 态过滤 mode A 用）
}

// BuildRenderModel 结果状态机：输入计数，输出渲染契约（纯函数）
func BuildRenderModel(in RenderInput) RenderModel {
	// 1. uiState：HIGH 有则 HIGH；否则 near 有则 MEDIUM；否则 LOW（未评估也是 LOW）
	state := UIStateLow
	if in.Evaluated {
		if in.HighCount > 0 {
			state = UIStateHigh
		} else if in.NearCount > 0 {
			state = UIStateMedium
		}
	}

	// 2. 匹配区封闭决策表，visible 永远由 variant 派生
	variant := matchesVariant(state, in.HighCount+in.NearCount, in.WardrobeCount)
	matches := MatchesSection{
		Variant: variant,
		Visible: variant != MatchesHidden,
	}

	// 3. 建议区：MEDIUM 先试 mode B，过滤后为空再回落 mode A；HIGH/LOW 恒用 mode A
	//    已覆盖品类过滤只在 HIGH 态生效
	mode := SuggestionModeGap
	bullets := in.ModeA
	switch state {
	case UIStateMedium:
		if len(in.ModeB) > 0 {
			mode = SuggestionModeTips
			bullets = in.ModeB
		}
	case UIStateHigh:
		bullets = filterCoveredCategories(in.ModeA, in.Covered)
	}
	suggestions := SuggestionsSection{
		Mode:    mode,
		Bullets: bullets,
		Visible: len(bullets) > 0,
	}

	// 4. 重扫 CTA：评估已完成、衣橱非空、两个区都不可见（与两区互斥是构造出来的）
	rescan := in.Evaluated && in.WardrobeCount > 0 && !matches.Visible && !suggestions.Visible

	return RenderModel{
		UIState:       state,
		Matches:       matches,
		Suggestions:   suggestions,
		ShowRescanCTA: rescan,
	}
}

// matchesVariant 匹配区封闭决策表
// 空衣橱 → 引导扫衣橱的 CTA（与 uiState 无关）；有匹配 → 列表；其余 → 隐藏
func matchesVariant(state UIState, matchCount, wardrobeCount int) MatchesVariant {
	if wardrobeCount == 0 {
		return MatchesEmptyCTA
	}
	if matchCount > 0 {
		return MatchesList
	}
	return MatchesHidden
}

// filterCoveredCategories 去掉衣橱已覆盖品类的气泡
func filterCoveredCategories(bullets []SuggestionBullet, covered map[Category]bool) []SuggestionBullet {
	out := make([]SuggestionBullet, 0, len(bullets))
	for _, b := range bullets {
		if b.Category != "" && covered[b.Category] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// wardrobeGapCatalog mode A 文案：按品类缺口的入门建议
var wardrobeGapCatalog = map[Category]string{
	CategoryTops:    "A versatile top would multiply what this piece can do",
	CategoryBottoms: "Classic bottoms would anchor a lot more looks",
	CategorySkirts:  "A skirt adds a whole different silhouette to pair with",
	CategoryDresses: "A dress unlocks effortless one-piece outfits",
	CategoryShoes:   "The right shoes complete almost any pairing",
}

// BuildWardrobeGapBullets 生成 mode A 气泡：衣橱缺失的核心品类，按规范顺序
func BuildWardrobeGapBullets(census map[Category]bool, max int) []SuggestionBullet {
	var bullets []SuggestionBullet
	for _, c := range CoreCategories {
		if census[c] {
			continue
		}
		bullets = append(bullets, SuggestionBullet{
			Category: c,
			Text:     wardrobeGapCatalog[c],
		})
		if len(bullets) >= max {
			break
		}
	}
	return bullets
}

// capReasonTips mode B 文案：压分原因码 → 穿搭提示
// 未登记的原因码直接丢弃（过滤语义）
var capReasonTips = map[string]string{
	"FORMALITY_GAP":      "Dressing these one notch up or down would turn near matches into wins",
	"SEASON_MISMATCH":    "Some close matches lean a different season — layering can bridge the gap",
	"PALETTE_CLASH":      "Neutral bottoms or shoes would soften the palette clashes here",
	"ARCHETYPE_STRETCH":  "These pieces stretch your usual style — anchor them with a familiar basic",
	"STATEMENT_OVERLOAD": "Pair one statement piece with quieter basics to let it lead",
}

// BuildStylingTipBullets 生成 mode B 气泡：near 匹配携带的压分原因，去重、保序、截断
func BuildStylingTipBullets(nearMatches []MatchedItem, max int) []SuggestionBullet {
	var bullets []SuggestionBullet
	seen := make(map[string]bool)
	for _, mi := range nearMatches {
		for _, code := range mi.CapReasons {
			if seen[code] {
				continue
			}
			seen[code] = true

			tip, ok := capReasonTips[code]
			if !ok {
				continue
			}
			bullets = append(bullets, SuggestionBullet{
				ReasonCode: code,
				Text:       tip,
			})
			if len(bullets) >= max {
				return bullets
			}
		}
	}
	return bullets
}

// 槽位名词（提示文案用）
var slotNouns = map[Slot]string{
	SlotTop:    "top",
	SlotBottom: "bottoms",
	SlotShoes:  "shoes",
	SlotDress:  "dress",
}

// missingSlotHint 缺口提示文案
func missingSlotHint(slot Slot) string {
	return fmt.Sprintf("Add %s to unlock full outfits with this piece", slotNouns[slot])
}

// weakSlotHint 弱槽位提示文案
func weakSlotHint(slot Slot) string {
	return fmt.Sprintf("Your %s didn't pair strongly here — a rescan or new options could help", slotNouns[slot])
}

// classifyEmptyOutfits 空套装归因（按优先级，基于首条生成轨道）
//  1. missing_core_pieces：轨道要求的槽位在衣橱里无对应品类
//  2. has_items_but_no_matches：品类在但槽位阻塞（0 候选）或弱（最高分/中档数不达标）
//  3. missing_high_tier_core_pieces：槽位都有候选但没有 HIGH（只对 high 桶有意义）
//  4. has_core_pieces_but_no_combos：残差，调用方记异常
func classifyEmptyOutfits(
	bucket DisplayBucket,
	tracks []ComboTrack,
	census map[Category]bool,
	stats map[Slot]SlotStats,
	cfg *Config,
) (OutfitEmptyReason, string) {
	if len(tracks) == 0 {
		return EmptyReasonNoCombos, ""
	}
	primary := tracks[0]

	// 1. 品类缺口
	for _, slot := range primary.Slots {
		if !slotCovered(census, slot) {
			return EmptyReasonMissingCorePieces, missingSlotHint(slot)
		}
	}

	// 2. 阻塞或弱槽位
	for _, slot := range primary.Slots {
		st := stats[slot]
		if st.Candidates == 0 {
			return EmptyReasonNoMatches, weakSlotHint(slot)
		}
		if st.BestScore < cfg.WeakSlotMinBestScore || st.MediumOrUp < cfg.WeakSlotMinMediumCount {
			return EmptyReasonNoMatches, weakSlotHint(slot)
		}
	}

	// 3. 无 HIGH 候选（仅 high 桶）
	if bucket == BucketHigh {
		for _, slot := range primary.Slots {
			if stats[slot].HighCount == 0 {
				return EmptyReasonNoHighTierPieces, weakSlotHint(slot)
			}
		}
	}

	// 4. 残差
	return EmptyReasonNoCombos, ""
}

// countCoreMatches 核心品类匹配数（tab 可见性只认这个）
func countCoreMatches(matches []MatchedItem) int {
	n := 0
	for _, mi := range matches {
		if mi.Category.IsCore() {
			n++
		}
	}
	return n
}
