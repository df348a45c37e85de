package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nhoinets2/scan-match-sub001/internal/entity"
	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
)

// WardrobeDAO 衣橱数据访问对象
type WardrobeDAO struct {
	db *gorm.DB
}

// NewWardrobeDAO 创建 WardrobeDAO 实例
func NewWardrobeDAO(db *gorm.DB) *WardrobeDAO {
	return &WardrobeDAO{db: db}
}

// ListByAccount 读取账户的全部衣橱单品（已转换为管线视图）
func (dao *WardrobeDAO) ListByAccount(ctx context.Context, accountID string) ([]outfit.Item, error) {
	var rows []entity.WardrobeItem
	err := dao.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wardrobe items: %w", err)
	}

	items := make([]outfit.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToOutfitItem())
	}
	return items, nil
}
