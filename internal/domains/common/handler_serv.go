package common

import (
	"context"

	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/job"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/response"
)

// HandlerServProc Handler 构造函数类型
// GetProcess 按 action_type 路由后，携带 Job 元信息与业务负载创建 Handler
type HandlerServProc func(ctx context.Context, meta *job.Meta, payload interface{}) (HandlerServ, error)

// HandlerServ 业务 Handler 接口
// GetProcess 驱动完整处理流程并产出响应（含错误语义，决定消息去向）
type HandlerServ interface {
	GetProcess() *response.Response
}
