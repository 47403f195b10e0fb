package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/metrics"
)

// unmatchedRoute 未匹配路由的统一标签
const unmatchedRoute = "unmatched"

// MetricsMiddleware 按路由模板记录请求数和耗时
// 路径中的模板和合同 ID 不进入标签
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// MetricsHandler Prometheus 指标处理器
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
