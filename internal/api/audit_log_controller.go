package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/service"
)

// AuditLogController 审计日志控制器
type AuditLogController struct {
	auditLogService service.AuditLogService
}

// NewAuditLogController 创建审计日志控制器
func NewAuditLogController(auditLogService service.AuditLogService) *AuditLogController {
	return &AuditLogController{auditLogService: auditLogService}
}

// List 审计日志列表
// @Summary      审计日志
// @Tags         审计
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        resource_type query string false "资源类型" Enums(template, contract)
// @Param        resource_id query string false "资源 ID"
// @Param        action query string false "操作"
// @Success      200  {object}  PaginatedResponse
// @Router       /audit-logs [get]
// @Security     BearerAuth
func (c *AuditLogController) List(ctx *gin.Context) {
	var filter service.AuditLogListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	logs, pagination, err := c.auditLogService.List(ctx.Request.Context(), &filter)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Paginated(ctx, logs, pagination)
}
