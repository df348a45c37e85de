// Package styleapi 封装风格平台的四个外部 HTTP 服务：
// 配对打分（scorer）、信任过滤（trust）、安全校验（safety）、风格信号（signals）。
// 所有客户端只做传输与编解码，降级策略由调用方决定。
package styleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// newHTTPClient 按配置超时构造 http.Client，未配置时用默认值
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// postJSON 发送 JSON POST 并解码响应，非 200 返回带响应体片段的错误
func postJSON(ctx context.Context, hc *http.Client, endpoint string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}

// statusError 读取响应体片段拼装错误信息，便于排查服务端报错
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, msg)
}
