package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nhoinets2/scan-match-sub001/internal/business"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/job"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/response"
	"github.com/nhoinets2/scan-match-sub001/internal/framework"
	"github.com/nhoinets2/scan-match-sub001/internal/model"
	"github.com/nhoinets2/scan-match-sub001/pkg/errorutil"
)

// MatchHandler 衣橱匹配 Handler
type MatchHandler struct {
	ctx     context.Context
	meta    *job.Meta
	payload *model.WardrobeMatchBusinessData

	// 函数链阶段间共享的状态
	matchService *business.MatchService
	input        *business.MatchInput
	resultData   *model.MatchResultData
}

// NewMatchHandler 创建匹配 Handler
// 解析标准化 Job 消息并校验必填字段
func NewMatchHandler(ctx context.Context, meta *job.Meta, payload interface{}) (common.HandlerServ, error) {
	// 解析 payload（业务数据）
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	var bizData model.WardrobeMatchBusinessData
	if err := json.Unmarshal(payloadBytes, &bizData); err != nil {
		return nil, fmt.Errorf("unmarshal business data failed: %w", err)
	}

	// 元信息兜底：业务数据缺省时取 Job 元数据
	if bizData.ScanID == "" {
		bizData.ScanID = meta.ID
	}
	if bizData.AccountID == "" {
		bizData.AccountID = meta.AccountID
	}

	// 校验必填字段
	if bizData.ScanID == "" {
		return nil, fmt.Errorf("scan_id is required")
	}
	if bizData.AccountID == "" {
		return nil, fmt.Errorf("account_id is required")
	}
	if bizData.ScanItem.ID == "" {
		return nil, fmt.Errorf("scan_item.id is required")
	}
	if !bizData.ScanItem.Category.Known() {
		return nil, fmt.Errorf("scan_item.category is invalid: %s", bizData.ScanItem.Category)
	}

	return &MatchHandler{
		ctx:     ctx,
		meta:    meta,
		payload: &bizData,
	}, nil
}

// GetProcess 处理匹配请求
func (h *MatchHandler) GetProcess() *response.Response {
	result := response.NewMatchResult()

	// 函数链：先解析依赖与输入，再执行匹配
	preProcessor := framework.NewPreProcessor([]framework.Stage{
		{Name: "prepare_input", Fn: h.preProcess},
		{Name: "execute_match", Fn: h.process},
	})
	err := preProcessor.Run(h.ctx)

	if h.resultData != nil {
		result.Data = h.resultData
	}

	// 包装响应
	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)

	return resp
}

// preProcess 解析依赖并组装匹配输入
func (h *MatchHandler) preProcess(ctx context.Context) error {
	matchService, ok := h.ctx.Value("match_service").(*business.MatchService)
	if !ok || matchService == nil {
		return fmt.Errorf("MatchService not found in context")
	}
	h.matchService = matchService

	h.input = &business.MatchInput{
		RequestID:      h.meta.RequestID,
		ScanID:         h.payload.ScanID,
		AccountID:      h.payload.AccountID,
		Scan:           h.payload.ScanItem,
		InlineWardrobe: h.payload.InlineWardrobe,
	}

	return nil
}

// process 执行匹配
func (h *MatchHandler) process(ctx context.Context) error {
	resultData, err := h.matchService.ExecuteMatch(ctx, h.input)
	if err != nil {
		// 不可重试错误即终态：先补 FAILED 落库与回调，消息随后转储死信
		if !errorutil.IsRetryable(err) {
			h.matchService.FailMatch(ctx, h.input, err)
		}
		return err
	}

	h.resultData = resultData
	return nil
}
