package outfit

import "sync"

// patternKey 模式缓存键（不可变参数）
type patternKey struct {
	k          int
	includeLow bool
}

// PatternCache 档位模式缓存
// k∈{1,2,3} 且模式集持续复用，只追加不失效；读多写少，RWMutex 保护
type PatternCache struct {
	mu    sync.RWMutex
	cache map[patternKey][][]ConfidenceTier
}

// NewPatternCache 创建模式缓存
func NewPatternCache() *PatternCache {
	return &PatternCache{
		cache: make(map[patternKey][][]ConfidenceTier),
	}
}

// Get 获取 k 个槽位的全部档位模式（按质量降序）
// 返回的切片为缓存共享数据，调用方不得修改
func (c *PatternCache) Get(k int, includeLow bool) [][]ConfidenceTier {
	key := patternKey{k: k, includeLow: includeLow}

	c.mu.RLock()
	patterns, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return patterns
	}

	patterns = generatePatterns(k, includeLow)

	c.mu.Lock()
	c.cache[key] = patterns
	c.mu.Unlock()

	return patterns
}

// Reset 清空缓存（测试用）
func (c *PatternCache) Reset() {
	c.mu.Lock()
	c.cache = make(map[patternKey][][]ConfidenceTier)
	c.mu.Unlock()
}

// generatePatterns 枚举长度 k 的档位序列并按质量排序
// 质量序：HIGH 多者优先，再 MEDIUM 少者，再 LOW 少者；平局按字典序（序列逐位比档位）保证确定性
func generatePatterns(k int, includeLow bool) [][]ConfidenceTier {
	if k <= 0 {
		return nil
	}

	tiers := []ConfidenceTier{TierHigh, TierMedium}
	if includeLow {
		tiers = append(tiers, TierLow)
	}

	total := 1
	for i := 0; i < k; i++ {
		total *= len(tiers)
	}

	patterns := make([][]ConfidenceTier, 0, total)
	current := make([]ConfidenceTier, k)

	var walk func(pos int)
	walk = func(pos int) {
		if pos == k {
			p := make([]ConfidenceTier, k)
			copy(p, current)
			patterns = append(patterns, p)
			return
		}
		for _, t := range tiers {
			current[pos] = t
			walk(pos + 1)
		}
	}
	walk(0)

	sortPatterns(patterns)
	return patterns
}

// sortPatterns 就地排序模式集
func sortPatterns(patterns [][]ConfidenceTier) {
	// 插入排序即可：k≤3 时模式总数 ≤ 27
	for i := 1; i < len(patterns); i++ {
		for j := i; j > 0 && patternLess(patterns[j], patterns[j-1]); j-- {
			patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
		}
	}
}

// patternLess 模式质量比较
func patternLess(a, b []ConfidenceTier) bool {
	ha, ma, la := countTiers(a)
	hb, mb, lb := countTiers(b)

	if ha != hb {
		return ha > hb // HIGH 多者优先
	}
	if ma != mb {
		return ma < mb // MEDIUM 少者优先
	}
	if la != lb {
		return la < lb // LOW 少者优先
	}

	// 平局：逐位比较档位序值（高档位在前）
	for i := range a {
		if a[i] != b[i] {
			return a[i].Rank() > b[i].Rank()
		}
	}
	return false
}

// countTiers 统计序列中各档位出现次数
func countTiers(p []ConfidenceTier) (high, medium, low int) {
	for _, t := range p {
		switch t {
		case TierHigh:
			high++
		case TierMedium:
			medium++
		case TierLow:
			low++
		}
	}
	return
}
