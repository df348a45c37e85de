package styleapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
)

// SafetyClient 安全校验服务客户端（Pass B）
// 请求携带 attempt_key 与策略版本，服务端可用 effective_dry_run 覆盖 dry_run 偏好
type SafetyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSafetyClient 创建安全校验客户端
func NewSafetyClient(cfg config.ServiceEndpoint) *SafetyClient {
	return &SafetyClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

// SafetyCheckItem 送检单品
type SafetyCheckItem struct {
	ItemID            string                   `json:"item_id"`
	PairType          string                   `json:"pair_type"`
	ArchetypeDistance outfit.ArchetypeDistance `json:"archetype_distance,omitempty"`
	Signals           *outfit.StyleSignals     `json:"signals,omitempty"`
}

// SafetyCheckRequest 安全校验请求体
type SafetyCheckRequest struct {
	AttemptKey    string               `json:"attempt_key"`
	PolicyVersion string               `json:"policy_version"`
	DryRun        bool                 `json:"dry_run"`
	ScanSignals   *outfit.StyleSignals `json:"scan_signals,omitempty"`
	Items         []SafetyCheckItem    `json:"items"`
}

// SafetyCheckStats 服务端统计
type SafetyCheckStats struct {
	CacheHits int   `json:"cache_hits"`
	LatencyMS int64 `json:"latency_ms"`
}

// SafetyCheckResponse 安全校验响应体
// AttemptKey 回显请求键，调用方据此丢弃过期响应
type SafetyCheckResponse struct {
	AttemptKey      string                 `json:"attempt_key"`
	EffectiveDryRun bool                   `json:"effective_dry_run"`
	Verdicts        []outfit.SafetyVerdict `json:"verdicts"`
	Stats           SafetyCheckStats       `json:"stats"`
}

// Check 对风险子集执行安全校验
func (c *SafetyClient) Check(ctx context.Context, req *SafetyCheckRequest) (*SafetyCheckResponse, error) {
	var resp SafetyCheckResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/v1/safety/check", req, &resp); err != nil {
		return nil, fmt.Errorf("safety check failed: %w", err)
	}
	return &resp, nil
}
