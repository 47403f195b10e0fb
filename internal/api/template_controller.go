package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/mautops/notary-gin/internal/utils"
)

// TemplateController 模板控制器
type TemplateController struct {
	templateService service.TemplateService
	contractService service.ContractService
}

// NewTemplateController 创建模板控制器
func NewTemplateController(templateService service.TemplateService, contractService service.ContractService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
		contractService: contractService,
	}
}

// templateID 读取并校验路径中的模板 ID
func templateID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template id", err.Error())
		return "", false
	}
	return id, true
}

// Create 创建模板
// @Summary      创建合同模板
// @Description  创建合同模板,字段定义与正文一起保存
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTemplateRequest true "模板信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /templates [post]
// @Security     BearerAuth
func (c *TemplateController) Create(ctx *gin.Context) {
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	template, err := c.templateService.Create(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, template)
}

// Get 获取模板
// @Summary      获取模板详情
// @Description  根据 ID 获取模板及其字段定义
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [get]
// @Security     BearerAuth
func (c *TemplateController) Get(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	template, err := c.templateService.Get(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, template)
}

// Update 更新模板
// @Summary      更新合同模板
// @Description  更新正文和基本信息,传入 fields 时整体替换字段定义
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.UpdateTemplateRequest true "模板信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [put]
// @Security     BearerAuth
func (c *TemplateController) Update(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	var req service.UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	template, err := c.templateService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, template)
}

// ReplaceFields 替换字段定义
// @Summary      替换模板字段
// @Description  在一个事务中整体替换模板的字段定义
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body []engine.FieldSpec true "字段定义"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/fields [put]
// @Security     BearerAuth
func (c *TemplateController) ReplaceFields(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	var fields []engine.FieldSpec
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	template, err := c.templateService.ReplaceFields(ctx.Request.Context(), id, fields)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, template)
}

// Delete 删除模板
// @Summary      删除合同模板
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [delete]
// @Security     BearerAuth
func (c *TemplateController) Delete(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	if err := c.templateService.Delete(ctx.Request.Context(), id); err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, nil)
}

// Duplicate 复制模板
// @Summary      复制合同模板
// @Description  复制正文和字段,副本为草稿状态
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      201  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/duplicate [post]
// @Security     BearerAuth
func (c *TemplateController) Duplicate(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	template, err := c.templateService.Duplicate(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, template)
}

// List 列出模板
// @Summary      获取模板列表
// @Description  分页获取模板列表,支持搜索、按类别和状态过滤
// @Tags         模板管理
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        search query string false "搜索关键词"
// @Param        category query string false "文书类别" Enums(sale, rent, power_of_attorney, other)
// @Param        status query string false "状态" Enums(draft, active)
// @Param        sort_by query string false "排序字段" default(created_at)
// @Param        order query string false "排序方向" Enums(asc, desc) default(desc)
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /templates [get]
// @Security     BearerAuth
func (c *TemplateController) List(ctx *gin.Context) {
	var filter service.TemplateListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	response, err := c.templateService.List(ctx.Request.Context(), &filter)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Paginated(ctx, response.Data, response.Pagination)
}

// Tokens 检查正文中的占位符
// @Summary      模板占位符检查
// @Description  列出正文中的占位符及其是否有字段定义
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/tokens [get]
// @Security     BearerAuth
func (c *TemplateController) Tokens(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	report, err := c.templateService.Lint(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, report)
}

// Preview 预览合同
// @Summary      预览合同
// @Description  编译模板但不保存,返回正文、字段值和字段错误
// @Tags         合同
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.GenerateContractRequest true "客户与手工字段"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/preview [post]
// @Security     BearerAuth
func (c *TemplateController) Preview(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	var req service.GenerateContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	result, err := c.contractService.Preview(ctx.Request.Context(), id, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, result)
}

// Generate 生成合同
// @Summary      生成合同
// @Description  编译模板并保存不可修改的合同快照。必填字段失败返回 422,存在未确认的空白返回 409
// @Tags         合同
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.GenerateContractRequest true "客户与手工字段"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /templates/{id}/contracts [post]
// @Security     BearerAuth
func (c *TemplateController) Generate(ctx *gin.Context) {
	id, ok := templateID(ctx)
	if !ok {
		return
	}

	var req service.GenerateContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	result, err := c.contractService.Generate(ctx.Request.Context(), id, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, gin.H{
		"contract": result.Contract,
		"warnings": fieldErrorItems(ctx, result.Warnings),
		"gaps":     result.Gaps,
	})
}
