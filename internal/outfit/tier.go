package outfit

// ConfidenceTier 配对置信档位，全序 HIGH > MEDIUM > LOW
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// Rank 档位序值（HIGH=3 > MEDIUM=2 > LOW=1，未知档位为 0）
func (t ConfidenceTier) Rank() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	}
	return 0
}

// Valid 是否为合法档位
func (t ConfidenceTier) Valid() bool {
	return t.Rank() > 0
}

// TrustAction 信任过滤（Pass A）动作
type TrustAction string

const (
	TrustKeep         TrustAction = "keep"
	TrustDemoteToNear TrustAction = "demote_to_near"
	TrustHide         TrustAction = "hide"
)

// SafetyAction 安全校验（Pass B）动作
type SafetyAction string

const (
	SafetyKeep   SafetyAction = "keep"
	SafetyDemote SafetyAction = "demote"
	SafetyHide   SafetyAction = "hide"
)

// MatchAction 合并后的最终动作
type MatchAction string

const (
	ActionKeep   MatchAction = "keep"
	ActionDemote MatchAction = "demote"
	ActionHide   MatchAction = "hide"
)

// FinalTier 合并后的最终档位
type FinalTier string

const (
	FinalTierHigh   FinalTier = "HIGH"
	FinalTierNear   FinalTier = "NEAR"
	FinalTierHidden FinalTier = "HIDDEN"
)

// rank 最终档位序值，用于单调合并（只降不升）
func (t FinalTier) rank() int {
	switch t {
	case FinalTierHigh:
		return 3
	case FinalTierNear:
		return 2
	case FinalTierHidden:
		return 1
	}
	return 0
}

// ArchetypeDistance 风格原型距离（信任过滤的决策痕迹）
type ArchetypeDistance string

const (
	ArchetypeNear   ArchetypeDistance = "near"
	ArchetypeMedium ArchetypeDistance = "medium"
	ArchetypeFar    ArchetypeDistance = "far"
)
