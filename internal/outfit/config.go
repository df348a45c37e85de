package outfit

// Config 流水线调参
// 阈值类参数是调出来的经验值，不是推导值，保持可配置
type Config struct {
	PerSlotCap             int     `json:"per_slot_cap"`
	MaxCombosPerTrack      int     `json:"max_combos_per_track"`
	MaxReasons             int     `json:"max_reasons"`
	IncludeLowTier         bool    `json:"include_low_tier"`
	NearOutfitQuota        int     `json:"near_outfit_quota"`
	MaxSuggestions         int     `json:"max_suggestions"`
	WeakSlotMinBestScore   float64 `json:"weak_slot_min_best_score"`
	WeakSlotMinMediumCount int     `json:"weak_slot_min_medium_count"`
}

// DefaultConfig 默认调参
func DefaultConfig() *Config {
	return &Config{
		PerSlotCap:             12,
		MaxCombosPerTrack:      40,
		MaxReasons:             3,
		IncludeLowTier:         false,
		NearOutfitQuota:        10,
		MaxSuggestions:         3,
		WeakSlotMinBestScore:   0.70,
		WeakSlotMinMediumCount: 2,
	}
}

// normalize 兜底非法参数（0 值回落到默认）
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.PerSlotCap <= 0 {
		c.PerSlotCap = def.PerSlotCap
	}
	if c.MaxCombosPerTrack <= 0 {
		c.MaxCombosPerTrack = def.MaxCombosPerTrack
	}
	if c.MaxReasons <= 0 {
		c.MaxReasons = def.MaxReasons
	}
	if c.NearOutfitQuota <= 0 {
		c.NearOutfitQuota = def.NearOutfitQuota
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = def.MaxSuggestions
	}
	if c.WeakSlotMinBestScore <= 0 {
		c.WeakSlotMinBestScore = def.WeakSlotMinBestScore
	}
	if c.WeakSlotMinMediumCount <= 0 {
		c.WeakSlotMinMediumCount = def.WeakSlotMinMediumCount
	}
}
