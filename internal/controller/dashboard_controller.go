package controller

import (
	"encoding/json"
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/cache"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	Identity         *service.IdentityService
	Pages            cache.PageCache
	CacheTTL         time.Duration
}

func NewDashboardController(dashboardService *service.DashboardService, identity *service.IdentityService, pages cache.PageCache, ttl time.Duration) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		Identity:         identity,
		Pages:            pages,
		CacheTTL:         ttl,
	}
}

// @Summary 获取仪表盘数据
// @Description 最近活动、继续阅读、推荐资源与计数
// @Tags 仪表盘
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.DashboardSnapshot}
// @Failure 401 {object} util.Response
// @Router /dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	caller, err := currentCaller(ctx, c.Identity)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if caller == nil {
		util.Unauthorized(ctx)
		return
	}

	path := service.DashboardPath(caller.ID)
	if body, ok := c.Pages.Get(ctx.Request.Context(), path); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}
	// 渲染前记下代数，期间发生的失效会让本次结果不进缓存
	generation, cacheable := c.Pages.Generation(ctx.Request.Context(), path)

	snapshot, err := c.DashboardService.BuildDashboard(ctx.Request.Context(), caller)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if snapshot == nil {
		util.Unauthorized(ctx)
		return
	}

	body, err := json.Marshal(util.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    snapshot,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	// 不完整的快照不进缓存
	if cacheable && len(snapshot.Warnings) == 0 {
		c.Pages.Set(ctx.Request.Context(), path, generation, body, c.CacheTTL)
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
