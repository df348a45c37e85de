package outfit

// PairEvaluation 外部打分服务给出的两两配对结果，产出后不可变
type PairEvaluation struct {
	ScanItemID       string         `json:"scan_item_id"`
	ItemID           string         `json:"item_id"`
	PairType         string         `json:"pair_type"` // 品类配对类型，如 "tops_shoes"
	Score            float64        `json:"score"`
	Tier             ConfidenceTier `json:"tier"`
	HardFailReason   string         `json:"hard_fail_reason,omitempty"` // 非空则直接隐藏
	CapReasons       []string       `json:"cap_reasons,omitempty"`      // 压分原因码（mode B 建议的素材）
	Explanation      string         `json:"explanation,omitempty"`
	AllowExplanation bool           `json:"allow_explanation"` // 解释是否允许透出给用户
}

// TrustTrace 信任过滤的决策痕迹
type TrustTrace struct {
	ArchetypeDistance ArchetypeDistance `json:"archetype_distance"`
	FormalityGap      int               `json:"formality_gap"`
	SeasonGap         bool              `json:"season_gap"`
}

// TrustDecision 信任过滤单项决策
type TrustDecision struct {
	ItemID string      `json:"item_id"`
	Action TrustAction `json:"action"`
	Trace  *TrustTrace `json:"trace,omitempty"`
}

// TrustStats 信任过滤聚合统计
type TrustStats struct {
	Kept    int `json:"kept"`
	Demoted int `json:"demoted"`
	Hidden  int `json:"hidden"`
}

// TrustOutcome 信任过滤（Pass A）结果
// nil 或缺项表示信息不足，合并时按 keep 处理
type TrustOutcome struct {
	Decisions map[string]TrustDecision `json:"decisions"`
	Stats     TrustStats               `json:"stats"`
}

// Decision 查询单品决策（未覆盖返回 ok=false）
func (o *TrustOutcome) Decision(itemID string) (TrustDecision, bool) {
	if o == nil || o.Decisions == nil {
		return TrustDecision{}, false
	}
	d, ok := o.Decisions[itemID]
	return d, ok
}

// SafetyVerdict 安全校验（Pass B）单项判定
type SafetyVerdict struct {
	ItemID     string       `json:"item_id"`
	Action     SafetyAction `json:"action"`
	ReasonCode string       `json:"reason_code,omitempty"`
	Rationale  string       `json:"rationale,omitempty"`
}
