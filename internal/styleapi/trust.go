package styleapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
)

// TrustClient 信任过滤服务客户端（Pass A）
// 只对暂定 HIGH 档的候选做逐件判定，返回 keep/demote_to_near/hide
type TrustClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTrustClient 创建信任过滤客户端
func NewTrustClient(cfg config.ServiceEndpoint) *TrustClient {
	return &TrustClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

// TrustItem 待过滤单品及其外部打分
type TrustItem struct {
	Item  outfit.Item
	Score float64
}

// trustItemPayload 信任过滤请求的单品字段
type trustItemPayload struct {
	ItemID        string               `json:"item_id"`
	Signals       *outfit.StyleSignals `json:"signals,omitempty"`
	Category      outfit.Category      `json:"category"`
	ExternalScore float64              `json:"external_score"`
}

// trustFilterRequest 信任过滤请求体
type trustFilterRequest struct {
	ScanSignals  *outfit.StyleSignals `json:"scan_signals,omitempty"`
	ScanCategory outfit.Category      `json:"scan_category"`
	Items        []trustItemPayload   `json:"items"`
}

// trustFilterResponse 信任过滤响应体
type trustFilterResponse struct {
	Decisions []outfit.TrustDecision `json:"decisions"`
	Stats     outfit.TrustStats      `json:"stats"`
}

// FilterTrust 对暂定 HIGH 候选做信任过滤
// 响应按 item_id 建索引，未覆盖的单品由合并逻辑按 keep 处理
func (c *TrustClient) FilterTrust(ctx context.Context, scan outfit.ScanItem, items []TrustItem) (*outfit.TrustOutcome, error) {
	req := trustFilterRequest{
		ScanSignals:  scan.Signals,
		ScanCategory: scan.Category,
		Items:        make([]trustItemPayload, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, trustItemPayload{
			ItemID:        it.Item.ID,
			Signals:       it.Item.Signals,
			Category:      it.Item.Category,
			ExternalScore: it.Score,
		})
	}

	var resp trustFilterResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/v1/trust/filter", req, &resp); err != nil {
		return nil, fmt.Errorf("trust filter failed: %w", err)
	}

	outcome := &outfit.TrustOutcome{
		Decisions: make(map[string]outfit.TrustDecision, len(resp.Decisions)),
		Stats:     resp.Stats,
	}
	for _, d := range resp.Decisions {
		outcome.Decisions[d.ItemID] = d
	}
	return outcome, nil
}
