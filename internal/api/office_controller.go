package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/service"
)

// OfficeController 当前公证处资料与统计
type OfficeController struct {
	officeService     service.OfficeService
	statisticsService service.StatisticsService
}

// NewOfficeController 创建公证处控制器
func NewOfficeController(officeService service.OfficeService, statisticsService service.StatisticsService) *OfficeController {
	return &OfficeController{
		officeService:     officeService,
		statisticsService: statisticsService,
	}
}

// Get 当前公证处资料
// @Summary      公证处资料
// @Tags         公证处
// @Produce      json
// @Success      200  {object}  Response
// @Router       /office [get]
// @Security     BearerAuth
func (c *OfficeController) Get(ctx *gin.Context) {
	office, err := c.officeService.Get(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, office)
}

// Update 更新当前公证处资料
// @Summary      更新公证处资料
// @Tags         公证处
// @Accept       json
// @Produce      json
// @Param        request body service.OfficeRequest true "公证处资料"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /office [put]
// @Security     BearerAuth
func (c *OfficeController) Update(ctx *gin.Context) {
	var req service.OfficeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	office, err := c.officeService.Update(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, office)
}

// Statistics 模板和合同统计
// @Summary      公证处统计
// @Tags         公证处
// @Produce      json
// @Param        days query int false "按天统计的窗口" default(30)
// @Success      200  {object}  Response
// @Router       /office/statistics [get]
// @Security     BearerAuth
func (c *OfficeController) Statistics(ctx *gin.Context) {
	days := 0
	if v := ctx.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "days must be a positive integer")
			return
		}
		days = n
	}
	stats, err := c.statisticsService.GetOfficeStatistics(ctx.Request.Context(), days)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, stats)
}
