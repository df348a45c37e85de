package model

import (
	"errors"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
)

// ErrScanNotFound 扫描记录不存在
// 重投也不可能成功，调用方应按不可重试处理
var ErrScanNotFound = errors.New("scan record not found")

// WardrobeMatchJob 衣橱匹配任务消息（标准化）
// 用于 API 服务 → scan-match 的消息传递
type WardrobeMatchJob struct {
	Payload WardrobeMatchPayload `json:"payload"`
}

// WardrobeMatchPayload Job 负载
type WardrobeMatchPayload struct {
	Data WardrobeMatchData `json:"data"`
}

// WardrobeMatchData Job 数据层
type WardrobeMatchData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（全链路追踪）
	AccountID  string `json:"account_id"`  // 账户 ID
	ActionType string `json:"action_type"` // 动作类型，固定值 "wardrobe_match"
	ID         string `json:"id"`          // 扫描记录 ID

	// 业务数据
	Data WardrobeMatchBusinessData `json:"data"`
}

// WardrobeMatchBusinessData 衣橱匹配业务数据
// 扫描件随消息内联；衣橱默认从 DB 读取，测试/预览可内联
type WardrobeMatchBusinessData struct {
	ScanID         string          `json:"scan_id"`
	AccountID      string          `json:"account_id"`
	ScanItem       outfit.ScanItem `json:"scan_item"`
	InlineWardrobe []outfit.Item   `json:"inline_wardrobe,omitempty"` // 非空时跳过 DB 查询
}

// WardrobeMatchCallback 匹配完成回调消息（标准化）
// 用于 scan-match → callback consumer 的消息传递
type WardrobeMatchCallback struct {
	RequestID   string           `json:"request_id"`             // 对应请求的 request_id（链路追踪）
	ScanID      string           `json:"scan_id"`                // 扫描记录 ID
	AccountID   string           `json:"account_id"`             // 账户 ID
	Status      string           `json:"status"`                 // 回调状态: SUCCESS / FAILED
	MatchResult *MatchResultData `json:"match_result,omitempty"` // 匹配结果（成功时返回）
	Error       string           `json:"error,omitempty"`        // 错误信息（失败时返回）
	ProcessedAt int64            `json:"processed_at"`           // 处理时间戳（Unix timestamp）
}

// 回调状态常量
const (
	CallbackStatusSuccess = "SUCCESS" // 匹配成功
	CallbackStatusFailed  = "FAILED"  // 匹配失败
)

// MatchResultData 匹配结果数据（DB 持久化与回调共用同一份 JSON）
type MatchResultData struct {
	ScanID      string               `json:"scan_id"`
	Evaluated   bool                 `json:"evaluated"`    // false 表示打分降级，结果为"未评估"兜底
	UIState     outfit.UIState       `json:"ui_state"`     // HIGH / MEDIUM / LOW
	HighMatches []outfit.MatchedItem `json:"high_matches"` // 最终 HIGH 桶
	NearMatches []outfit.MatchedItem `json:"near_matches"` // 最终 NEAR 桶
	HiddenCount int                  `json:"hidden_count"` // 隐藏数量（明细不出域）
	HighTab     outfit.TabContent    `json:"high_tab"`
	NearTab     outfit.TabContent    `json:"near_tab"`
	Render      outfit.RenderModel   `json:"render"`
	Stats       outfit.PipelineStats `json:"stats"`

	// 安全校验标记：消费方据此区分 trust-only 结果
	SafetyApplied bool   `json:"safety_applied"`           // Pass B 判定是否生效
	PolicyVersion string `json:"policy_version,omitempty"` // 生效的安全策略版本
	Provisional   bool   `json:"provisional"`              // 在灰度内但判定未生效（非 dry-run）
}
