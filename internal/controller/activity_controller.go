package controller

import (
	"encoding/json"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	ActivityService *service.ActivityService
	Identity        *service.IdentityService
}

func NewActivityController(activityService *service.ActivityService, identity *service.IdentityService) *ActivityController {
	return &ActivityController{ActivityService: activityService, Identity: identity}
}

type recordActivityRequest struct {
	Action     string          `json:"action" binding:"required,max=50"`
	ResourceID *uint           `json:"resourceId"`
	Detail     json.RawMessage `json:"detail" swaggertype:"object"`
}

// @Summary 记录用户行为
// @Description 尽力而为，未登录时忽略，总是返回 202
// @Tags 行为
// @Accept json
// @Produce json
// @Param body body recordActivityRequest true "行为"
// @Success 202 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /activity [post]
func (c *ActivityController) RecordActivity(ctx *gin.Context) {
	var req recordActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var detail any
	if len(req.Detail) > 0 && string(req.Detail) != "null" {
		detail = req.Detail
	}

	caller := softCaller(ctx, c.Identity)
	c.ActivityService.RecordAsync(caller, model.ActivityAction(req.Action), req.ResourceID, detail)
	util.Accepted(ctx, nil)
}

type RetentionController struct {
	RetentionService *service.ActivityRetentionService
}

func NewRetentionController(retentionService *service.ActivityRetentionService) *RetentionController {
	return &RetentionController{RetentionService: retentionService}
}

// @Summary 立即执行行为日志归档
// @Description 归档并清理超过保留期的行为事件，保留期为 0 时不做任何事
// @Tags 行为
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /admin/activity/retention [post]
func (c *RetentionController) RunRetention(ctx *gin.Context) {
	archived, err := c.RetentionService.RunOnce(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"archived":      archived,
		"retentionDays": c.RetentionService.RetentionDays,
	})
}
