package entity

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
)

// WardrobeItem 衣橱单品实体
type WardrobeItem struct {
	// 基础字段
	ID        string `gorm:"column:id;primaryKey;type:varchar(64)"`
	AccountID string `gorm:"column:account_id;type:varchar(64);not null;index:idx_account"`

	// 单品属性
	Category string `gorm:"column:category;type:varchar(32);not null"`
	Label    string `gorm:"column:label;type:varchar(255);not null"`
	Notes    string `gorm:"column:notes;type:varchar(512)"`

	// 风格信号（提取服务写入，可为空）
	Signals datatypes.JSON `gorm:"column:signals;type:json"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (WardrobeItem) TableName() string {
	return "wardrobe_items"
}

// ToOutfitItem 转换为管线输入视图
// 信号列损坏时按无信号处理（信息不足），不阻断匹配
func (w *WardrobeItem) ToOutfitItem() outfit.Item {
	item := outfit.Item{
		ID:       w.ID,
		Category: outfit.Category(w.Category),
		Label:    w.Label,
		Notes:    w.Notes,
	}

	if len(w.Signals) > 0 {
		var signals outfit.StyleSignals
		if err := json.Unmarshal(w.Signals, &signals); err == nil {
			item.Signals = &signals
		}
	}

	return item
}
