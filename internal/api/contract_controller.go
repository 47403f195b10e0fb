package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/mautops/notary-gin/internal/utils"
)

// ContractController 合同控制器
type ContractController struct {
	contractService service.ContractService
}

// NewContractController 创建合同控制器
func NewContractController(contractService service.ContractService) *ContractController {
	return &ContractController{
		contractService: contractService,
	}
}

// VoidContractRequest 作废合同请求
type VoidContractRequest struct {
	Reason string `json:"reason" binding:"required"` // 作废原因
}

func contractID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid contract id", err.Error())
		return "", false
	}
	return id, true
}

// Get 获取合同
// @Summary      获取合同详情
// @Tags         合同
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id} [get]
// @Security     BearerAuth
func (c *ContractController) Get(ctx *gin.Context) {
	id, ok := contractID(ctx)
	if !ok {
		return
	}

	contract, err := c.contractService.Get(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, contract)
}

// List 列出合同
// @Summary      获取合同列表
// @Tags         合同
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        status query string false "状态" Enums(active, void)
// @Param        template_id query string false "模板 ID"
// @Param        search query string false "合同编号"
// @Success      200  {object}  PaginatedResponse
// @Router       /contracts [get]
// @Security     BearerAuth
func (c *ContractController) List(ctx *gin.Context) {
	var filter service.ContractListFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	response, err := c.contractService.List(ctx.Request.Context(), &filter)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Paginated(ctx, response.Data, response.Pagination)
}

// Void 作废合同
// @Summary      作废合同
// @Description  合同正文不变,只记录作废状态、原因和操作人
// @Tags         合同
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Param        request body VoidContractRequest true "作废原因"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /contracts/{id}/void [post]
// @Security     BearerAuth
func (c *ContractController) Void(ctx *gin.Context) {
	id, ok := contractID(ctx)
	if !ok {
		return
	}

	var req VoidContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	contract, err := c.contractService.Void(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, contract)
}

// Verify 校验合同内容哈希
// @Summary      校验合同完整性
// @Tags         合同
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id}/verify [post]
// @Security     BearerAuth
func (c *ContractController) Verify(ctx *gin.Context) {
	id, ok := contractID(ctx)
	if !ok {
		return
	}

	result, err := c.contractService.Verify(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, result)
}

// Archive 获取归档快照的下载链接
// @Summary      获取合同归档链接
// @Tags         合同
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id}/archive [get]
// @Security     BearerAuth
func (c *ContractController) Archive(ctx *gin.Context) {
	id, ok := contractID(ctx)
	if !ok {
		return
	}

	url, err := c.contractService.ArchiveURL(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, gin.H{"url": url})
}
