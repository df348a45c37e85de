package outfit

// Slot 套装槽位
type Slot string

const (
	SlotTop       Slot = "TOP"
	SlotBottom    Slot = "BOTTOM"
	SlotShoes     Slot = "SHOES"
	SlotOuterwear Slot = "OUTERWEAR"
	SlotDress     Slot = "DRESS"
)

// Category 衣橱品类（扫描服务给出的固定品类集）
type Category string

const (
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategorySkirts      Category = "skirts"
	CategoryDresses     Category = "dresses"
	CategoryShoes       Category = "shoes"
	CategoryOuterwear   Category = "outerwear"
	CategoryBags        Category = "bags"
	CategoryAccessories Category = "accessories"
	CategoryUnknown     Category = "unknown"
)

// SlotForCategory 品类到槽位的固定全映射
// bags/accessories/unknown 不占槽位（ok=false）
func SlotForCategory(c Category) (Slot, bool) {
	switch c {
	case CategoryTops:
		return SlotTop, true
	case CategoryBottoms, CategorySkirts:
		return SlotBottom, true
	case CategoryDresses:
		return SlotDress, true
	case CategoryShoes:
		return SlotShoes, true
	case CategoryOuterwear:
		return SlotOuterwear, true
	}
	return "", false
}

// IsCore 是否核心品类（tab 可见性只看核心品类；outerwear/bags/accessories 不开关 tab）
func (c Category) IsCore() bool {
	switch c {
	case CategoryTops, CategoryBottoms, CategorySkirts, CategoryDresses, CategoryShoes:
		return true
	}
	return false
}

// Known 是否为已定义品类（unknown 也是合法值，不占槽位）
func (c Category) Known() bool {
	switch c {
	case CategoryTops, CategoryBottoms, CategorySkirts, CategoryDresses,
		CategoryShoes, CategoryOuterwear, CategoryBags, CategoryAccessories, CategoryUnknown:
		return true
	}
	return false
}

// CoreCategories 核心品类的规范顺序（建议气泡、缺口提示按此排序）
var CoreCategories = []Category{
	CategoryTops,
	CategoryBottoms,
	CategorySkirts,
	CategoryDresses,
	CategoryShoes,
}

// FormalityLevel 正式度档（1-5 风格分类法）
type FormalityLevel int

const (
	FormalityCasual      FormalityLevel = 1 // 休闲
	FormalityFormal      FormalityLevel = 2 // 正式
	FormalitySmartCasual FormalityLevel = 3 // 商务休闲
	FormalityAthleisure  FormalityLevel = 4 // 运动休闲
	FormalityEvening     FormalityLevel = 5 // 晚装
)

// 正式度区间（band）：0 休闲 / 1 商务休闲 / 2 正式
const (
	BandCasual      = 0
	BandSmartCasual = 1
	BandFormal      = 2
)

// FormalityBand 正式度分桶
// 未知正式度返回 nil：无信号不等于违规，任何规则都不因缺失触发
func FormalityBand(level *FormalityLevel) *int {
	if level == nil {
		return nil
	}
	var band int
	switch *level {
	case FormalityCasual, FormalityAthleisure:
		band = BandCasual
	case FormalitySmartCasual:
		band = BandSmartCasual
	case FormalityFormal, FormalityEvening:
		band = BandFormal
	default:
		return nil
	}
	return &band
}

// StatementLevel 单品张扬程度
type StatementLevel string

const (
	StatementLow    StatementLevel = "low"
	StatementMedium StatementLevel = "medium"
	StatementHigh   StatementLevel = "high"
)

// StyleSignals 风格信号（提取服务产出，整体可缺失）
type StyleSignals struct {
	Archetypes []string        `json:"archetypes,omitempty"` // 风格原型标签
	Formality  *FormalityLevel `json:"formality,omitempty"`  // 正式度（可缺失）
	Seasons    []string        `json:"seasons,omitempty"`    // 适用季节
	Statement  StatementLevel  `json:"statement,omitempty"`  // 张扬程度
}

// Item 衣橱单品视图
type Item struct {
	ID       string        `json:"id"`
	Category Category      `json:"category"`
	Label    string        `json:"label"`
	Notes    string        `json:"notes,omitempty"`
	Signals  *StyleSignals `json:"signals,omitempty"`
}

// Formality 正式度访问器（信号缺失时返回 nil）
func (i Item) Formality() *FormalityLevel {
	if i.Signals == nil {
		return nil
	}
	return i.Signals.Formality
}

// Statement 张扬程度访问器（信号缺失时返回空）
func (i Item) Statement() StatementLevel {
	if i.Signals == nil {
		return ""
	}
	return i.Signals.Statement
}

// ScanItem 被扫描单品
type ScanItem struct {
	Item
	ScanID string `json:"scan_id"`
}
