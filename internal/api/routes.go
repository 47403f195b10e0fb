package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/auth"
	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/service"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config            *config.Config
	DB                *gorm.DB
	Storage           Pinger // 可以为 nil
	TemplateService   service.TemplateService
	ContractService   service.ContractService
	ClientService     service.ClientService
	OfficeService     service.OfficeService
	StatisticsService service.StatisticsService
	AuditLogService   service.AuditLogService
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}

	router := gin.New()

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(MetricsMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing))
	}
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(I18nMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(deps.DB, deps.Storage)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	templateController := NewTemplateController(deps.TemplateService, deps.ContractService)
	contractController := NewContractController(deps.ContractService)
	clientController := NewClientController(deps.ClientService)
	officeController := NewOfficeController(deps.OfficeService, deps.StatisticsService)
	tokenController := NewTokenController()
	auditLogController := NewAuditLogController(deps.AuditLogService)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		v1.Use(auth.AuthMiddleware(auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)))
	} else {
		v1.Use(auth.HeaderIdentityMiddleware())
	}
	v1.Use(IdentityMiddleware())
	if cfg.Tracing.Enabled {
		v1.Use(SpanIdentityMiddleware())
	}
	{
		// 占位符目录
		v1.GET("/tokens", tokenController.List)

		// 模板管理路由
		templates := v1.Group("/templates")
		{
			templates.POST("", templateController.Create)
			templates.GET("", templateController.List)
			templates.GET("/:id", templateController.Get)
			templates.PUT("/:id", templateController.Update)
			templates.DELETE("/:id", templateController.Delete)
			templates.POST("/:id/duplicate", templateController.Duplicate)
			templates.PUT("/:id/fields", templateController.ReplaceFields)
			templates.GET("/:id/tokens", templateController.Tokens)
			templates.POST("/:id/preview", templateController.Preview)
			templates.POST("/:id/contracts",
				RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
				templateController.Generate,
			)
		}

		// 合同路由
		contracts := v1.Group("/contracts")
		{
			contracts.GET("", contractController.List)
			contracts.GET("/:id", contractController.Get)
			contracts.POST("/:id/void", contractController.Void)
			contracts.POST("/:id/verify", contractController.Verify)
			contracts.GET("/:id/archive", contractController.Archive)
		}

		// 客户路由
		clients := v1.Group("/clients")
		{
			clients.POST("", clientController.Create)
			clients.GET("", clientController.List)
			clients.GET("/:id", clientController.Get)
			clients.PUT("/:id", clientController.Update)
			clients.DELETE("/:id", clientController.Delete)
		}

		// 当前公证处
		v1.GET("/office", officeController.Get)
		v1.PUT("/office", officeController.Update)
		v1.GET("/office/statistics", officeController.Statistics)

		// 审计日志
		v1.GET("/audit-logs", auditLogController.List)
	}

	// 404 处理
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, T(c, "error.not_found"), c.Request.URL.Path)
	})

	return router
}
