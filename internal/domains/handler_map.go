package domains

import (
	"github.com/nhoinets2/scan-match-sub001/internal/domains/common"
	"github.com/nhoinets2/scan-match-sub001/internal/domains/handlers/wardrobe/match"
)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]common.HandlerServProc{
	"wardrobe_match": match.NewMatchHandler,

	// 未来扩展示例：
	// "wardrobe_refresh": refresh.NewRefreshHandler,
}
