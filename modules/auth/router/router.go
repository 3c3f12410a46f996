package router

import (
	"schedulesync/core/middleware"
	"schedulesync/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	// Public OAuth flow endpoints
	authRoutes := e.Group("/api/auth")
	authRoutes.GET("/login", r.controller.GoogleAuth)
	authRoutes.GET("/callback", r.controller.GoogleCallback)
	authRoutes.POST("/refresh", r.controller.RefreshToken)

	// Authenticated session endpoints
	privateRoutes := e.Group("/api/v1/private/auth", mw.AuthMiddleware())
	privateRoutes.POST("/logout", r.controller.Logout)
	privateRoutes.GET("/me", r.controller.GetMe)
}
