package response

import (
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common/job"
	"github.com/nhoinets2/scan-match-sub001/pkg/errorutil"
)

// MatchResult 匹配结果（实现 ResultI 接口）
type MatchResult struct {
	ID     string           `json:"id"`     // 扫描记录 ID
	Status string           `json:"status"` // SUCCESS / FAILED
	Data   interface{}      `json:"data"`   // 匹配结果数据（model.MatchResultData）
	Error  *errorutil.Error `json:"error,omitempty"`
}

const (
	MatchStatusSuccess = "SUCCESS"
	MatchStatusFailed  = "FAILED"
)

// NewMatchResult 创建匹配结果
func NewMatchResult() *MatchResult {
	return &MatchResult{}
}

// Set 实现 ResultI 接口
func (r *MatchResult) Set(meta *job.Meta, err error) {
	r.ID = meta.ID
	if err != nil {
		r.Status = MatchStatusFailed
		r.Error = errorutil.Wrap(err)
	} else {
		r.Status = MatchStatusSuccess
	}
}

// GetStatus 实现 ResultI 接口
func (r *MatchResult) GetStatus() string {
	return r.Status
}
