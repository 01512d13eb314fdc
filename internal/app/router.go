package app

import (
	"library_portal_backend/docs"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/middleware"
	"library_portal_backend/internal/model"
	"library_portal_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由（可选登录）：未登录时行为记录静默忽略
	public := router.Group("/api")
	public.Use(middleware.TryAuthMiddleware(cfg))
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/resources/:id", c.resource.GetResource)
		public.POST("/activity", c.activity.RecordActivity)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/dashboard", c.dashboard.GetDashboard)
		authGroup.GET("/recommendations", c.recommendation.GetRecommendations)
		authGroup.PUT("/resources/:id/progress", c.readingProgress.UpdateProgress)
		authGroup.GET("/resources/:id/progress", c.readingProgress.GetProgress)
	}

	// 3. 管理员路由
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.POST("/activity/retention", c.retention.RunRetention)
	}
}
