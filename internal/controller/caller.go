package controller

import (
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func currentCaller(ctx *gin.Context, identity *service.IdentityService) (*model.Caller, error) {
	return identity.CurrentCaller(ctx.Request.Context(), util.GetUserFromContext(ctx))
}

// softCaller 用于写路径：身份服务不可用时按游客处理
func softCaller(ctx *gin.Context, identity *service.IdentityService) *model.Caller {
	caller, err := currentCaller(ctx, identity)
	if err != nil {
		logger.Log.Warn("identity lookup failed, continuing anonymously",
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
		return nil
	}
	return caller
}
