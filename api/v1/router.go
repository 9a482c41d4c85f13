package v1

import (
	"github.com/clientdesk-api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/statuses", ListStatuses)

	authRequired := middleware.AuthMiddleware(h.auth)

	// Auth endpoints
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", authRequired, h.GetCurrentUser)
	}

	// Public feedback form, authorised by the token alone
	feedbackGroup := router.Group("/feedback")
	{
		feedbackGroup.GET("/:token", h.ValidateFeedbackToken)
		feedbackGroup.POST("/:token", h.SubmitFeedback)
	}

	// Project endpoints - protected by AuthMiddleware
	projectGroup := router.Group("/projects")
	projectGroup.Use(authRequired)
	{
		projectGroup.GET("", h.ListProjects)
		projectGroup.POST("", h.CreateProject)
		projectGroup.GET("/:id", h.GetProject)
		projectGroup.PUT("/:id", h.UpdateProject)
		projectGroup.DELETE("/:id", h.DeleteProject)
		projectGroup.GET("/:id/activity", h.GetProjectActivity)
		projectGroup.GET("/:id/payments", h.ListPayments)
		projectGroup.POST("/:id/payments", h.CreatePaymentOrder)
		projectGroup.POST("/:id/payments/capture", h.CapturePayment)
	}

	router.GET("/dashboard", authRequired, h.GetDashboardStats)

	notificationGroup := router.Group("/notifications")
	notificationGroup.Use(authRequired)
	{
		notificationGroup.GET("", h.ListNotifications)
		notificationGroup.GET("/unread-count", h.GetUnreadCount)
		notificationGroup.PATCH("/:id/read", h.MarkNotificationRead)
		notificationGroup.POST("/read-all", h.MarkAllNotificationsRead)
	}

	// Admin endpoints - protected by AdminMiddleware
	adminGroup := router.Group("/admin")
	adminGroup.Use(authRequired, middleware.AdminMiddleware())
	{
		adminGroup.GET("/projects", h.ListProjects)
		adminGroup.PATCH("/projects/:id", h.AdminUpdateProject)
		adminGroup.POST("/projects/:id/feedback-tokens", h.IssueFeedbackToken)
		adminGroup.GET("/projects/:id/feedback-tokens", h.ListFeedbackTokens)
		adminGroup.GET("/projects/:id/feedback", h.ListProjectFeedback)
	}
}
