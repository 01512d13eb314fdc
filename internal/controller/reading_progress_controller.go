package controller

import (
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReadingProgressController struct {
	ProgressService *service.ReadingProgressService
	Identity        *service.IdentityService
}

func NewReadingProgressController(progressService *service.ReadingProgressService, identity *service.IdentityService) *ReadingProgressController {
	return &ReadingProgressController{ProgressService: progressService, Identity: identity}
}

type updateProgressRequest struct {
	CurrentPage *int `json:"currentPage" binding:"required"`
	TotalPages  *int `json:"totalPages"`
}

// @Summary 上报阅读进度
// @Description 按 (用户, 资源) 插入或覆盖阅读位置
// @Tags 阅读进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "资源ID"
// @Param body body updateProgressRequest true "阅读位置"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /resources/{id}/progress [put]
func (c *ReadingProgressController) UpdateProgress(ctx *gin.Context) {
	resourceID := util.MustParseUint(ctx.Param("id"))
	if resourceID == 0 {
		util.BadRequest(ctx, "invalid resource id")
		return
	}

	var req updateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	caller := softCaller(ctx, c.Identity)
	if err := c.ProgressService.Update(ctx.Request.Context(), caller, resourceID, *req.CurrentPage, req.TotalPages); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Progress saved"})
}

// @Summary 获取阅读位置
// @Tags 阅读进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "资源ID"
// @Success 200 {object} util.Response{data=model.ReadingProgress}
// @Router /resources/{id}/progress [get]
func (c *ReadingProgressController) GetProgress(ctx *gin.Context) {
	resourceID := util.MustParseUint(ctx.Param("id"))
	if resourceID == 0 {
		util.BadRequest(ctx, "invalid resource id")
		return
	}

	caller, err := currentCaller(ctx, c.Identity)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if caller == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.Get(ctx.Request.Context(), caller, resourceID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if progress == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, progress)
}
