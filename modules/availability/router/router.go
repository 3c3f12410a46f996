package router

import (
	"schedulesync/core/middleware"
	"schedulesync/modules/availability/controller"

	"github.com/labstack/echo/v4"
)

type AvailabilityRouter struct {
	controller *controller.AvailabilityController
}

func NewAvailabilityRouter(controller *controller.AvailabilityController) *AvailabilityRouter {
	return &AvailabilityRouter{controller: controller}
}

func (r *AvailabilityRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	// Host-facing slot management
	meRoutes := e.Group("/api/user/me", mw.AuthMiddleware())
	meRoutes.POST("/slots", r.controller.RegenerateSlots)
	meRoutes.GET("/slots", r.controller.GetOwnSlots)

	// Guest-facing booking page
	publicRoutes := e.Group("/api/slots", mw.PublicRateLimiter())
	publicRoutes.GET("/:ref", r.controller.GetPublicSlots)
}
