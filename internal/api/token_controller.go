package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/engine"
)

// TokenCatalogItem 目录条目,附带插入文本
type TokenCatalogItem struct {
	engine.CatalogEntry
	Insert string `json:"insert"`
}

// TokenCatalogGroup 按分组返回的目录
type TokenCatalogGroup struct {
	Category engine.Category    `json:"category"`
	Entries  []TokenCatalogItem `json:"entries"`
}

// TokenController 占位符目录控制器
type TokenController struct{}

// NewTokenController 创建占位符目录控制器
func NewTokenController() *TokenController {
	return &TokenController{}
}

// List 占位符目录
// @Summary      占位符目录
// @Description  编辑器可插入的占位符,按分组返回。传 q 时按 key、标签和说明搜索,返回平铺列表
// @Tags         占位符
// @Produce      json
// @Param        q query string false "搜索关键词"
// @Success      200  {object}  Response
// @Router       /tokens [get]
// @Security     BearerAuth
func (c *TokenController) List(ctx *gin.Context) {
	if q := ctx.Query("q"); q != "" {
		Success(ctx, toItems(engine.SearchCatalog(q)))
		return
	}

	groups := engine.CatalogByCategory()
	out := make([]TokenCatalogGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, TokenCatalogGroup{Category: g.Category, Entries: toItems(g.Entries)})
	}
	Success(ctx, out)
}

func toItems(entries []engine.CatalogEntry) []TokenCatalogItem {
	items := make([]TokenCatalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, TokenCatalogItem{CatalogEntry: e, Insert: e.Insert()})
	}
	return items
}
