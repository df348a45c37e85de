package ops

import (
	"github.com/gin-gonic/gin"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/ginx"
)

// previewRequest 管线预览请求
// 打分结果、信任结论与安全裁决都由调用方直接给出，
// 便于离线重放线上快照
type previewRequest struct {
	Scan        outfit.ScanItem                 `json:"scan"`
	Wardrobe    []outfit.Item                   `json:"wardrobe"`
	Evaluations []outfit.PairEvaluation         `json:"evaluations"`
	Evaluated   *bool                           `json:"evaluated"` // 缺省 true；false 模拟打分未完成
	Trust       *outfit.TrustOutcome            `json:"trust"`
	Safety      map[string]outfit.SafetyVerdict `json:"safety"`
}

// preview 对给定输入跑一遍决策管线
// POST /api/v1/match/preview
func (s *Server) preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	if req.Scan.ID == "" {
		ginx.BadRequest(c, "scan.id is required")
		return
	}

	evaluated := true
	if req.Evaluated != nil {
		evaluated = *req.Evaluated
	}

	result := s.engine.Evaluate(c.Request.Context(), outfit.EvaluateInput{
		Scan:        req.Scan,
		Wardrobe:    req.Wardrobe,
		Evaluations: req.Evaluations,
		Evaluated:   evaluated,
		Trust:       req.Trust,
		Safety:      req.Safety,
	})

	ginx.Success(c, result)
}
