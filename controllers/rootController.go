package controllers

import (
	"github.com/gin-gonic/gin"

	"PracticeManager/handlers"
)

// SetupRootRoute sets up the welcome and health routes
func SetupRootRoute(router *gin.Engine, health *handlers.HealthHandler) {
	router.GET("/", health.Root)
	router.GET("/health", health.Health)
}
