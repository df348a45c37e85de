package styleapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
)

// ScorerClient 两两配对打分服务客户端
// 对扫描件和整个衣橱做一次批量评估，产出不可变的 PairEvaluation 列表
type ScorerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewScorerClient 创建打分服务客户端
func NewScorerClient(cfg config.ServiceEndpoint) *ScorerClient {
	return &ScorerClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

// evaluateRequest 打分请求体
type evaluateRequest struct {
	ScanItem      outfit.ScanItem `json:"scan_item"`
	WardrobeItems []outfit.Item   `json:"wardrobe_items"`
	Options       evaluateOptions `json:"options"`
}

type evaluateOptions struct {
	IncludeLow bool `json:"include_low"`
}

// evaluateResponse 打分响应体
type evaluateResponse struct {
	Evaluations []outfit.PairEvaluation `json:"evaluations"`
}

// EvaluatePairs 批量评估扫描件与衣橱单品的配对
func (c *ScorerClient) EvaluatePairs(ctx context.Context, scan outfit.ScanItem, wardrobe []outfit.Item, includeLow bool) ([]outfit.PairEvaluation, error) {
	req := evaluateRequest{
		ScanItem:      scan,
		WardrobeItems: wardrobe,
		Options:       evaluateOptions{IncludeLow: includeLow},
	}

	var resp evaluateResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/v1/pairs/evaluate", req, &resp); err != nil {
		return nil, fmt.Errorf("scorer evaluate failed: %w", err)
	}
	return resp.Evaluations, nil
}
