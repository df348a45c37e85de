package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"

	"github.com/nhoinets2/scan-match-sub001/internal/business"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/job"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/response"
	"github.com/nhoinets2/scan-match-sub001/pkg/lmstfyx"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// GetProcess 返回核心处理函数（注入到 Processor）
// matchService 通过 Context 传递给 Handler
func GetProcess(log logger.Logger, matchService *business.MatchService) lmstfyx.Proc {
	return func(ctx context.Context, lmstfyJob *client.Job) *lmstfyx.JobResp {
		startTime := time.Now()

		// 1. 解析 Job
		meta, bizPayload, err := parseJob(ctx, lmstfyJob, log)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parseJob failed: %v", err)
			return lmstfyx.BuryResp(nil)
		}

		// 2. 注入元信息和依赖到 Context
		ctx = meta.Inject(ctx)
		if matchService != nil {
			ctx = context.WithValue(ctx, "match_service", matchService)
		}

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s, id=%s",
			meta.ActionType, meta.RequestID, meta.ID)

		// 3. 从 HandlerMap 获取 Handler
		handlerFunc, ok := HandlerMap[meta.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return lmstfyx.BuryResp(nil)
		}

		// 4. 调用 Handler（捕获 panic）
		var resp *lmstfyx.JobResp
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					resp = lmstfyx.BuryResp(nil)
				}
			}()

			handler, err := handlerFunc(ctx, meta, bizPayload)
			if err != nil {
				log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
				resp = lmstfyx.BuryResp(nil)
				return
			}

			handlerResp := handler.GetProcess()
			resp = doJobReport(ctx, handlerResp, lmstfyJob.ID, log)
		}()

		// 5. 记录处理时长
		duration := time.Since(startTime)
		log.Infof(ctx, "[GetProcess] Processing complete: action=%d, duration=%v", resp.Action, duration)

		return resp
	}
}

// parseJob 解析 Job，提取元信息与业务负载
func parseJob(ctx context.Context, lmstfyJob *client.Job, log logger.Logger) (*job.Meta, interface{}, error) {
	// 1. 反序列化 Job
	var standardJob job.Job
	if err := json.Unmarshal(lmstfyJob.Data, &standardJob); err != nil {
		return nil, nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	// 2. 校验必填字段
	if standardJob.Payload == nil || standardJob.Payload.Data == nil {
		return nil, nil, fmt.Errorf("invalid job structure: payload.data is nil")
	}

	data := standardJob.Payload.Data

	// 3. 提取元数据
	meta := &job.Meta{
		RequestID:  data.RequestID,
		AccountID:  data.AccountID,
		ActionType: data.ActionType,
		ID:         data.ID,
	}

	// RequestID 为空则生成一个
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	log.Debugf(ctx, "[parseJob] Parsed: action_type=%s, request_id=%s, id=%s",
		meta.ActionType, meta.RequestID, meta.ID)

	return meta, data.Data, nil
}

// doJobReport 生成 JobResp（根据 Response 的错误语义决定 ACK/Release/Bury）
func doJobReport(ctx context.Context, resp *response.Response, jobID string, log logger.Logger) *lmstfyx.JobResp {
	// 序列化响应数据
	data, err := json.Marshal(resp)
	if err != nil {
		log.Errorf(ctx, "[doJobReport] marshal response failed: %v", err)
		return lmstfyx.BuryResp(nil)
	}

	if resp.Error != nil {
		if resp.Error.Retryable {
			log.Warnf(ctx, "[doJobReport] retryable failure, releasing job %s: %s", jobID, resp.Error.Message)
			return lmstfyx.ReleaseResp(data)
		}
		log.Errorf(ctx, "[doJobReport] non-retryable failure, burying job %s: %s", jobID, resp.Error.Message)
		return lmstfyx.BuryResp(data)
	}

	return lmstfyx.AckResp(data)
}
