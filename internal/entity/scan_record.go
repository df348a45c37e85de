package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ScanRecord 扫描记录实体（包含匹配结果）
type ScanRecord struct {
	// 基础字段
	ID        string `gorm:"column:id;primaryKey;type:varchar(64)"`
	AccountID string `gorm:"column:account_id;type:varchar(64);not null;index:idx_account_status"`

	// 扫描件数据
	RawItem datatypes.JSON `gorm:"column:raw_item;type:json;not null"`

	// 匹配状态与结果
	Status       string         `gorm:"column:status;type:varchar(16);not null;default:'MATCHING';index:idx_account_status"`
	MatchResult  datatypes.JSON `gorm:"column:match_result;type:json"`
	ErrorMessage string         `gorm:"column:error_message;type:varchar(512)"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (ScanRecord) TableName() string {
	return "scan_records"
}

// 扫描记录状态常量
const (
	ScanStatusMatching = "MATCHING"
	ScanStatusMatched  = "MATCHED"
	ScanStatusFailed   = "FAILED"
)
