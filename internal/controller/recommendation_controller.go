package controller

import (
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	RecommendationService *service.RecommendationService
	Identity              *service.IdentityService
	DefaultLimit          int
}

func NewRecommendationController(recommendationService *service.RecommendationService, identity *service.IdentityService, defaultLimit int) *RecommendationController {
	return &RecommendationController{
		RecommendationService: recommendationService,
		Identity:              identity,
		DefaultLimit:          defaultLimit,
	}
}

// @Summary 获取推荐资源
// @Description 课程匹配、高评分、未读最新三种策略依次补足
// @Tags 推荐
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量"
// @Success 200 {object} util.Response{data=[]model.RecommendationCandidate}
// @Failure 400 {object} util.Response
// @Router /recommendations [get]
func (c *RecommendationController) GetRecommendations(ctx *gin.Context) {
	limit, err := util.ParseLimit(ctx.Query("limit"), c.DefaultLimit)
	if err != nil {
		util.HandleError(ctx, err)
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

	candidates, err := c.RecommendationService.Select(ctx.Request.Context(), caller, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, candidates)
}
