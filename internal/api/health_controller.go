package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/database"
	"gorm.io/gorm"
)

// Pinger 可做连通性检查的外部依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController 健康检查控制器
type HealthController struct {
	db      *gorm.DB
	storage Pinger
}

// NewHealthController 创建健康检查控制器,storage 可以为 nil
func NewHealthController(db *gorm.DB, storage Pinger) *HealthController {
	return &HealthController{
		db:      db,
		storage: storage,
	}
}

// Check 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	// 检查数据库连接
	if c.db != nil {
		if err := database.CheckHealth(reqCtx, c.db); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	// 对象存储不可用只影响归档,标记为 degraded
	if c.storage != nil {
		if err := c.storage.Ping(reqCtx); err != nil {
			if status == "healthy" {
				status = "degraded"
			}
			checks["storage"] = "unhealthy: " + err.Error()
		} else {
			checks["storage"] = "healthy"
		}
	} else {
		checks["storage"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}
