package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/iredox10/kano-market-price/internal/middleware"
	"github.com/iredox10/kano-market-price/internal/services/approval"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Approvals      approval.Service
	Identity       domain.IdentityProvider
	RateLimiter    *middleware.RateLimiter
	Metrics        http.Handler
	RequestTimeout time.Duration
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	logrus.Info("Setting up routes...")

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Server is running!",
			"status":  "ok",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "kano-market-price",
		})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	if deps.Approvals == nil || deps.Identity == nil {
		logrus.Warn("Backend not connected - running with limited functionality")
		router.Any("/api/*path", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "Backend connection not available",
			})
		})
		return
	}

	shopApplicationHandler := NewShopApplicationHandler(deps.Approvals, deps.RequestTimeout)

	// Protected Routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(deps.Identity), deps.RateLimiter.Handler())
	{
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireCapability(domain.CapabilityAdmin))
		{
			applications := admin.Group("/shop-applications")
			{
				applications.GET("", shopApplicationHandler.ListApplications)
				applications.GET("/:id", shopApplicationHandler.GetApplication)
				applications.POST("/approve", shopApplicationHandler.ApproveApplication)
				applications.POST("/reject", shopApplicationHandler.RejectApplication)
			}
		}
	}
}
