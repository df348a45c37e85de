package business

import (
	"context"
	"crypto/sha1"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"go.uber.org/atomic"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/internal/styleapi"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// SafetyChecker 安全校验服务
type SafetyChecker interface {
	Check(ctx context.Context, req *styleapi.SafetyCheckRequest) (*styleapi.SafetyCheckResponse, error)
}

// VerdictStore 安全判定缓存（内容寻址，策略版本隔离）
type VerdictStore interface {
	Get(ctx context.Context, policyVersion, scanItemID, itemID string) (*outfit.SafetyVerdict, error)
	Set(ctx context.Context, policyVersion, scanItemID, itemID string, verdict *outfit.SafetyVerdict) error
}

// SafetyGate 安全校验门（Pass B 编排）
// 只在灰度桶内生效，只送检有限的风险子集，任何失败都吞掉：
// trust-only 结果永远是可用的兜底
type SafetyGate struct {
	client SafetyChecker
	store  VerdictStore // 可为 nil（缓存关闭）
	cfg    config.SafetyConfig
	log    logger.Logger

	checks      atomic.Int64 // 发起的远程校验次数
	staleEchoes atomic.Int64 // 因回显键不匹配被丢弃的响应数
}

// NewSafetyGate 创建安全校验门
func NewSafetyGate(client SafetyChecker, store VerdictStore, cfg config.SafetyConfig, log logger.Logger) *SafetyGate {
	return &SafetyGate{
		client: client,
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

// SafetyReview 安全校验结论
// Verdicts 为 nil 表示"无可用判定"（未进灰度、dry-run 或失败），trust-only 结果即终态
type SafetyReview struct {
	Verdicts  map[string]outfit.SafetyVerdict
	InRollout bool
	Applied   bool
	DryRun    bool
}

// GateStats 校验门累计统计
type GateStats struct {
	Checks      int64
	StaleEchoes int64
}

// Stats 读取累计统计（关停时打点用）
func (g *SafetyGate) Stats() GateStats {
	return GateStats{
		Checks:      g.checks.Load(),
		StaleEchoes: g.staleEchoes.Load(),
	}
}

// PolicyVersion 生效的安全策略版本
func (g *SafetyGate) PolicyVersion() string {
	return g.cfg.PolicyVersion
}

// InRollout 账户是否在灰度桶内（fnv64a 哈希取模，账户维度稳定）
func (g *SafetyGate) InRollout(accountID string) bool {
	if !g.cfg.Enabled || g.cfg.RolloutPercent <= 0 {
		return false
	}
	if g.cfg.RolloutPercent >= 100 {
		return true
	}
	h := fnv.New64a()
	h.Write([]byte(accountID))
	return h.Sum64()%100 < uint64(g.cfg.RolloutPercent)
}

// Review 对暂定 HIGH 桶执行安全校验
// provisional 是 trust-only 合并后的 HIGH 桶；evals/items/trust 提供配对类型、
// 信号与决策痕迹。风险子集为空时视作"已校验、无需动作"
func (g *SafetyGate) Review(
	ctx context.Context,
	accountID string,
	scan outfit.ScanItem,
	provisional []outfit.MatchedItem,
	evals map[string]outfit.PairEvaluation,
	items map[string]outfit.Item,
	trust *outfit.TrustOutcome,
) SafetyReview {
	review := SafetyReview{}
	if !g.InRollout(accountID) {
		return review
	}
	review.InRollout = true

	risky := g.riskySubset(scan, provisional, items, trust)
	if len(risky) == 0 {
		review.Applied = true
		review.Verdicts = map[string]outfit.SafetyVerdict{}
		return review
	}

	// 1. 命中内容寻址缓存的直接采纳
	verdicts := make(map[string]outfit.SafetyVerdict, len(risky))
	pending := make([]outfit.MatchedItem, 0, len(risky))
	for _, mi := range risky {
		if g.store == nil {
			pending = append(pending, mi)
			continue
		}
		cached, err := g.store.Get(ctx, g.cfg.PolicyVersion, scan.ID, mi.ItemID)
		if err != nil {
			g.log.Warnf(ctx, "[SafetyGate] verdict cache lookup failed for item %s: %v", mi.ItemID, err)
		}
		if cached != nil {
			verdicts[cached.ItemID] = *cached
			continue
		}
		pending = append(pending, mi)
	}

	// 2. 剩余的送检，回显键不匹配视为过期响应丢弃
	dryRun := g.cfg.DryRun
	if len(pending) > 0 {
		key := attemptKey(scan.ScanID, provisional, g.cfg.PolicyVersion)
		req := &styleapi.SafetyCheckRequest{
			AttemptKey:    key,
			PolicyVersion: g.cfg.PolicyVersion,
			DryRun:        g.cfg.DryRun,
			ScanSignals:   scan.Signals,
			Items:         make([]styleapi.SafetyCheckItem, 0, len(pending)),
		}
		for _, mi := range pending {
			checkItem := styleapi.SafetyCheckItem{ItemID: mi.ItemID}
			if ev, ok := evals[mi.ItemID]; ok {
				checkItem.PairType = ev.PairType
			}
			if d, ok := trust.Decision(mi.ItemID); ok && d.Trace != nil {
				checkItem.ArchetypeDistance = d.Trace.ArchetypeDistance
			}
			if item, ok := items[mi.ItemID]; ok {
				checkItem.Signals = item.Signals
			}
			req.Items = append(req.Items, checkItem)
		}

		g.checks.Inc()
		resp, err := g.client.Check(ctx, req)
		if err != nil {
			g.log.Warnf(ctx, "[SafetyGate] check failed, trust-only result stands: %v", err)
			return review
		}
		if resp.AttemptKey != key {
			g.staleEchoes.Inc()
			g.log.Warnf(ctx, "[SafetyGate] stale attempt key echo discarded: got=%s want=%s", resp.AttemptKey, key)
			return review
		}
		if resp.EffectiveDryRun {
			dryRun = true
		}

		for _, v := range resp.Verdicts {
			verdicts[v.ItemID] = v
			// 判定本身与 dry-run 无关，照常回填缓存
			if g.store != nil {
				verdict := v
				if err := g.store.Set(ctx, g.cfg.PolicyVersion, scan.ID, v.ItemID, &verdict); err != nil {
					g.log.Warnf(ctx, "[SafetyGate] verdict cache write failed for item %s: %v", v.ItemID, err)
				}
			}
		}
	}

	review.DryRun = dryRun
	if dryRun {
		g.log.Infof(ctx, "[SafetyGate] dry-run: %d verdicts computed, none applied", len(verdicts))
		return review
	}

	review.Applied = true
	review.Verdicts = verdicts
	return review
}

// riskySubset 圈定风险子集：三个触发条件同时成立才送检
// 1) 任一侧张扬程度为 high；2) 任一侧正式度为运动休闲；3) 信任痕迹给出中等原型距离。
// 按分数降序（同分按 id 升序）截断到 TopK
func (g *SafetyGate) riskySubset(
	scan outfit.ScanItem,
	provisional []outfit.MatchedItem,
	items map[string]outfit.Item,
	trust *outfit.TrustOutcome,
) []outfit.MatchedItem {
	risky := make([]outfit.MatchedItem, 0, len(provisional))
	for _, mi := range provisional {
		item, ok := items[mi.ItemID]
		if !ok {
			continue
		}
		d, ok := trust.Decision(mi.ItemID)
		if !ok || d.Trace == nil || d.Trace.ArchetypeDistance != outfit.ArchetypeMedium {
			continue
		}
		if scan.Statement() != outfit.StatementHigh && item.Statement() != outfit.StatementHigh {
			continue
		}
		if !athleisureInvolved(scan.Formality(), item.Formality()) {
			continue
		}
		risky = append(risky, mi)
	}

	sort.Slice(risky, func(i, j int) bool {
		if risky[i].Score != risky[j].Score {
			return risky[i].Score > risky[j].Score
		}
		return risky[i].ItemID < risky[j].ItemID
	})

	if g.cfg.TopK > 0 && len(risky) > g.cfg.TopK {
		risky = risky[:g.cfg.TopK]
	}
	return risky
}

// athleisureInvolved 任一侧正式度为运动休闲
func athleisureInvolved(scanLevel, itemLevel *outfit.FormalityLevel) bool {
	if scanLevel != nil && *scanLevel == outfit.FormalityAthleisure {
		return true
	}
	if itemLevel != nil && *itemLevel == outfit.FormalityAthleisure {
		return true
	}
	return false
}

// attemptKey 版本化尝试键：扫描 ID + 暂定 HIGH 集合指纹 + 策略版本
// HIGH 集合一变键就变，晚到的旧响应会因回显不匹配被丢弃
func attemptKey(scanID string, provisional []outfit.MatchedItem, policyVersion string) string {
	ids := make([]string, 0, len(provisional))
	for _, mi := range provisional {
		ids = append(ids, mi.ItemID)
	}
	sort.Strings(ids)
	sum := sha1.Sum([]byte(strings.Join(ids, ",")))
	return fmt.Sprintf("%s:%x:%s", scanID, sum[:8], policyVersion)
}
