package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/mautops/notary-gin/internal/utils"
)

// ClientController 客户控制器
type ClientController struct {
	clientService service.ClientService
}

// NewClientController 创建客户控制器
func NewClientController(clientService service.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

func clientID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid client id", err.Error())
		return "", false
	}
	return id, true
}

// Create 创建客户
// @Summary      创建客户
// @Tags         客户管理
// @Accept       json
// @Produce      json
// @Param        request body service.ClientRequest true "客户资料"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /clients [post]
// @Security     BearerAuth
func (c *ClientController) Create(ctx *gin.Context) {
	var req service.ClientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	client, err := c.clientService.Create(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Created(ctx, client)
}

// Get 获取客户
// @Summary      获取客户详情
// @Tags         客户管理
// @Produce      json
// @Param        id path string true "客户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /clients/{id} [get]
// @Security     BearerAuth
func (c *ClientController) Get(ctx *gin.Context) {
	id, ok := clientID(ctx)
	if !ok {
		return
	}
	client, err := c.clientService.Get(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, client)
}

// Update 更新客户
// @Summary      更新客户资料
// @Tags         客户管理
// @Accept       json
// @Produce      json
// @Param        id path string true "客户 ID"
// @Param        request body service.ClientRequest true "客户资料"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /clients/{id} [put]
// @Security     BearerAuth
func (c *ClientController) Update(ctx *gin.Context) {
	id, ok := clientID(ctx)
	if !ok {
		return
	}
	var req service.ClientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	client, err := c.clientService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, client)
}

// Delete 删除客户
// @Summary      删除客户
// @Tags         客户管理
// @Param        id path string true "客户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /clients/{id} [delete]
// @Security     BearerAuth
func (c *ClientController) Delete(ctx *gin.Context) {
	id, ok := clientID(ctx)
	if !ok {
		return
	}
	if err := c.clientService.Delete(ctx.Request.Context(), id); err != nil {
		_ = ctx.Error(err)
		return
	}
	Success(ctx, nil)
}

// List 客户列表
// @Summary      客户列表
// @Tags         客户管理
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        search query string false "按名字、身份证号、电话搜索"
// @Param        marital_status query string false "婚姻状况" Enums(single, married, divorced, widowed)
// @Param        sort_by query string false "排序字段" default(created_at)
// @Param        order query string false "排序方向" Enums(asc, desc) default(desc)
// @Success      200  {object}  PaginatedResponse
// @Router       /clients [get]
// @Security     BearerAuth
func (c *ClientController) List(ctx *gin.Context) {
	var filter service.ClientListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	resp, err := c.clientService.List(ctx.Request.Context(), &filter)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	Paginated(ctx, resp.Data, resp.Pagination)
}
