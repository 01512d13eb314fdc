package controller

import (
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/repository"
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceRepo    *repository.ResourceRepository
	ActivityService *service.ActivityService
	Identity        *service.IdentityService
}

func NewResourceController(resourceRepo *repository.ResourceRepository, activityService *service.ActivityService, identity *service.IdentityService) *ResourceController {
	return &ResourceController{
		ResourceRepo:    resourceRepo,
		ActivityService: activityService,
		Identity:        identity,
	}
}

// @Summary 获取资源详情
// @Description 登录用户的浏览会被记录
// @Tags 资源
// @Produce json
// @Param id path int true "资源ID"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 404 {object} util.Response
// @Router /resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid resource id")
		return
	}

	resource, err := c.ResourceRepo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if resource == nil {
		util.NotFound(ctx)
		return
	}

	caller := softCaller(ctx, c.Identity)
	c.ActivityService.RecordAsync(caller, model.ActionView, &resource.ID, nil)

	util.Success(ctx, resource)
}
