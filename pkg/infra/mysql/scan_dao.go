package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/nhoinets2/scan-match-sub001/internal/entity"
	"github.com/nhoinets2/scan-match-sub001/internal/model"
)

// ScanDAO 扫描记录数据访问对象
type ScanDAO struct {
	db *gorm.DB
}

// NewScanDAO 创建 ScanDAO 实例
func NewScanDAO(db *gorm.DB) *ScanDAO {
	return &ScanDAO{db: db}
}

// UpdateMatchResult 更新扫描记录的匹配结果
// 参数：
//   - ctx: 上下文
//   - scanID: 扫描记录 ID
//   - result: 匹配结果数据（失败时可为 nil）
//   - status: 扫描状态（MATCHED/FAILED）
//   - errorMsg: 错误消息（失败时）
func (dao *ScanDAO) UpdateMatchResult(
	ctx context.Context,
	scanID string,
	result *model.MatchResultData,
	status string,
	errorMsg string,
) error {
	updates := map[string]interface{}{
		"status": status,
	}

	if result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal match result: %w", err)
		}
		updates["match_result"] = resultJSON
	}

	if errorMsg != "" {
		updates["error_message"] = errorMsg
	}

	dbResult := dao.db.WithContext(ctx).
		Model(&entity.ScanRecord{}).
		Where("id = ?", scanID).
		Updates(updates)

	if dbResult.Error != nil {
		return fmt.Errorf("failed to update scan record: %w", dbResult.Error)
	}

	if dbResult.RowsAffected == 0 {
		return fmt.Errorf("scan %s: %w", scanID, model.ErrScanNotFound)
	}

	return nil
}

// GetScanByID 根据扫描 ID 获取扫描记录
func (dao *ScanDAO) GetScanByID(ctx context.Context, scanID string) (*entity.ScanRecord, error) {
	var record entity.ScanRecord
	result := dao.db.WithContext(ctx).Where("id = ?", scanID).First(&record)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get scan record: %w", result.Error)
	}
	return &record, nil
}
