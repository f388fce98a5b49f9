package app

import (
	"exam_center_backend/docs"
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/middleware"
	"exam_center_backend/internal/model"

	"exam_center_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
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

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 考试相关
	rg.GET("/exams", c.exam.ListExams)
	rg.POST("/exams/:id/submit", c.exam.SubmitExam)
	rg.GET("/exams/:id/result", c.exam.GetMyResult)

	// 数据分析
	analytics := rg.Group("/analytics")
	{
		analytics.GET("/statistics", c.analytics.GetUserStatistics)
		analytics.GET("/exams/:id/performance", c.analytics.GetExamPerformance)
		analytics.GET("/weak-points", c.analytics.GetWeakPoints)
		analytics.GET("/mastery", c.analytics.GetMastery)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.PUT("/answers/:id/grade", c.exam.GradeAnswer)
		teacher.GET("/exams/:id/submissions", c.exam.ListSubmissions)
		teacher.GET("/exams/:id/export", c.exam.ExportResults)
		teacher.GET("/exams/:id/reports", c.exam.ListReports)

		teacher.GET("/analytics/exams/:id/difficulty", c.analytics.GetExamDifficulty)
		teacher.GET("/analytics/exams/:id/hard-questions", c.analytics.GetHardestQuestions)
	}
}
