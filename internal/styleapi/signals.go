package styleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
)

// SignalsClient 风格信号服务客户端
// 404 表示该单品还没有提取出信号，按"信息不足"处理而非错误
type SignalsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSignalsClient 创建风格信号客户端
func NewSignalsClient(cfg config.SignalsEndpoint) *SignalsClient {
	return &SignalsClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

// GetSignals 拉取单品的风格信号，无信号返回 (nil, nil)
func (c *SignalsClient) GetSignals(ctx context.Context, itemID string) (*outfit.StyleSignals, error) {
	endpoint := c.baseURL + "/v1/signals/" + url.PathEscape(itemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signals fetch failed: %w", statusError(resp))
	}

	var signals outfit.StyleSignals
	if err := json.NewDecoder(resp.Body).Decode(&signals); err != nil {
		return nil, fmt.Errorf("decode signals failed: %w", err)
	}
	return &signals, nil
}
