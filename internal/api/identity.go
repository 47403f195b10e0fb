package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/auth"
	"github.com/mautops/notary-gin/internal/service"
)

// IdentityMiddleware 把认证中间件写入的用户和公证处放进请求 context
// 必须放在 auth.AuthMiddleware 或 auth.HeaderIdentityMiddleware 之后
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := service.Identity{
			UserID:   c.GetString(auth.ContextUserID),
			UserName: c.GetString(auth.ContextUserName),
			OfficeID: c.GetString(auth.ContextOfficeID),
		}
		if id.UserID == "" || id.OfficeID == "" {
			Error(c, http.StatusUnauthorized, T(c, "error.unauthorized"), "missing user or office identity")
			c.Abort()
			return
		}

		ctx := service.WithIdentity(c.Request.Context(), id)
		ctx = service.WithRequestMeta(ctx, c.GetString("request_id"), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
