package router

import (
	"schedulesync/core/middleware"
	"schedulesync/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	Controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{Controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	// Guest booking endpoint
	publicRoutes := e.Group("/api/bookings", mw.PublicRateLimiter())
	publicRoutes.POST("", r.Controller.CreateBooking)

	// Host booking history
	privateRoutes := e.Group("/api/v1/private/bookings", mw.AuthMiddleware())
	privateRoutes.GET("", r.Controller.ListBookings)
	privateRoutes.GET("/ical", r.Controller.ExportICal)
}
