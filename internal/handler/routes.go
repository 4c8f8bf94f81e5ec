package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/middleware"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth      *AuthHandler
	Students  *StudentHandler
	Subjects  *SubjectHandler
	Results   *ResultHandler
	Reports   *ReportHandler
	Dashboard *DashboardHandler
	Metrics   *MetricsHandler
}

// Register mounts the API under prefix. Session resolution must already be
// installed on r.
func Register(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", middleware.RequireTeacher(), h.Auth.Me)

	secured := api.Group("")
	secured.Use(middleware.RequireTeacher())

	secured.GET("/dashboard/teacher", h.Dashboard.Teacher)
	secured.GET("/dashboard/eo", middleware.RequireEO(), h.Dashboard.EO)

	secured.GET("/students", h.Students.List)
	secured.POST("/students", h.Students.Create)
	secured.DELETE("/students/:id", h.Students.Delete)

	secured.GET("/subjects", h.Subjects.List)
	secured.POST("/subjects", h.Subjects.Create)
	secured.DELETE("/subjects/:id", middleware.RequireEO(), h.Subjects.Delete)

	secured.POST("/results", h.Results.Submit)
	secured.PUT("/results/:id", h.Results.UpdateScores)
	secured.GET("/results/recent", h.Results.Recent)
	secured.GET("/results/graded", h.Results.Graded)

	reports := secured.Group("/reports")
	reports.Use(middleware.RequireEO())
	reports.GET("/results", h.Reports.ClassReport)
	reports.GET("/results/export", h.Reports.Export)
}
