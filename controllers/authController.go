package controllers

import (
	"github.com/gin-gonic/gin"

	"PracticeManager/handlers"
	"PracticeManager/middlewares"
	"PracticeManager/services"
)

type AuthController struct {
	Handler *handlers.AuthHandler
	auth    services.AuthService
}

// NewAuthController creates a new AuthController with the given AuthHandler
func NewAuthController(authHandler *handlers.AuthHandler, auth services.AuthService) *AuthController {
	return &AuthController{
		Handler: authHandler,
		auth:    auth,
	}
}

// RegisterRoutes initializes all authentication routes directly on the router
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	// Public routes: No authentication required
	router.POST("/auth/register", ac.Handler.Register)
	router.POST("/auth/register/validate/:step", ac.Handler.ValidateStep)
	router.POST("/auth/login", ac.Handler.Login)
	router.POST("/auth/refresh-token", ac.Handler.RefreshToken)
	router.POST("/send-reset-code", ac.Handler.SendResetCode)
	router.POST("/change-password", ac.Handler.ChangePassword)

	// Protected routes: Requires a valid session
	authGroup := router.Group("/auth").Use(middlewares.TokenAuthMiddleware(ac.auth))
	{
		authGroup.POST("/logoff", ac.Handler.Logoff)
		authGroup.GET("/user/profile", ac.Handler.GetUserProfile)
		authGroup.PUT("/user/update-profile", ac.Handler.UpdateUserProfile)
	}
}
