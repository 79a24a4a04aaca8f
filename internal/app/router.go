package app

import (
	"excel_interview_backend/docs"
	"excel_interview_backend/internal/middleware"
	"excel_interview_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, resolver middleware.IdentityResolver) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(resolver), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.Profile)

		a.registerInterviewRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerInterviewRoutes(group *gin.RouterGroup, c *controllers) {
	interviews := group.Group("/interviews")
	{
		interviews.POST("/start", c.interview.Start)
		interviews.GET("/history", c.interview.History)

		interviews.GET("/:sessionId", c.interview.Get)
		interviews.POST("/:sessionId/message", c.interview.Message)
		interviews.POST("/:sessionId/upload", c.interview.Upload)
		interviews.GET("/:sessionId/template/:templateType", c.interview.DownloadTemplate)
		interviews.POST("/:sessionId/abandon", c.interview.Abandon)
	}
}
