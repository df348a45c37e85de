package outfit

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StyleClassifier 风格分类接口
// 关键词子串匹配只是启发式而非真值，隔离在接口后面，便于换成模型分类器而不动规则逻辑
type StyleClassifier interface {
	IsFormalShoe(item Item) bool
	IsHeelShoe(item Item) bool // 高跟是正装鞋的子集
	IsAthleticShoe(item Item) bool
	IsSportyGarment(item Item) bool
	HasExceptionVibe(item Item) bool // 街头/前卫风，豁免正式度冲突类规则
}

// KeywordRules 关键词规则表（中英双语默认值，可整体替换）
type KeywordRules struct {
	FormalShoes    []string `json:"formal_shoes"`
	HeelShoes      []string `json:"heel_shoes"`
	AthleticShoes  []string `json:"athletic_shoes"`
	SportyGarments []string `json:"sporty_garments"`
	ExceptionVibes []string `json:"exception_vibes"`
}

// DefaultKeywordRules 默认关键词表
func DefaultKeywordRules() KeywordRules {
	return KeywordRules{
		FormalShoes: []string{
			"oxford", "derby", "loafer", "brogue", "dress shoe",
			"正装鞋", "皮鞋", "乐福鞋",
		},
		HeelShoes: []string{
			"heel", "pump", "stiletto", "高跟",
		},
		AthleticShoes: []string{
			"sneaker", "trainer", "running", "athletic", "basketball",
			"运动鞋", "球鞋", "跑鞋",
		},
		SportyGarments: []string{
			"jogger", "track pant", "sweatpant", "gym", "yoga", "athletic",
			"运动裤", "卫裤", "瑜伽",
		},
		ExceptionVibes: []string{
			"streetwear", "edgy", "sporty chic", "athflow",
			"街头", "混搭",
		},
	}
}

// KeywordClassifier 关键词子串分类器
// 在 label+notes 的归一化文本上做大小写无关子串匹配
type KeywordClassifier struct {
	rules KeywordRules
}

// NewKeywordClassifier 创建关键词分类器
func NewKeywordClassifier(rules KeywordRules) *KeywordClassifier {
	return &KeywordClassifier{rules: rules}
}

// IsFormalShoe 是否正装鞋（高跟词命中也算，子集关系）
func (c *KeywordClassifier) IsFormalShoe(item Item) bool {
	return c.matches(item, c.rules.FormalShoes) || c.matches(item, c.rules.HeelShoes)
}

// IsHeelShoe 是否高跟鞋
func (c *KeywordClassifier) IsHeelShoe(item Item) bool {
	return c.matches(item, c.rules.HeelShoes)
}

// IsAthleticShoe 是否运动鞋
func (c *KeywordClassifier) IsAthleticShoe(item Item) bool {
	return c.matches(item, c.rules.AthleticShoes)
}

// IsSportyGarment 是否运动系衣物
func (c *KeywordClassifier) IsSportyGarment(item Item) bool {
	return c.matches(item, c.rules.SportyGarments)
}

// HasExceptionVibe 是否带豁免风格标记
func (c *KeywordClassifier) HasExceptionVibe(item Item) bool {
	return c.matches(item, c.rules.ExceptionVibes)
}

// matches 归一化后做子串匹配
func (c *KeywordClassifier) matches(item Item, keywords []string) bool {
	text := normalizeText(item.Label + " " + item.Notes)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, normalizeText(kw)) {
			return true
		}
	}
	return false
}

// normalizeText NFKC 归一化 + 小写，统一全半角和大小写差异
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
