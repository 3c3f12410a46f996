package auth

import (
	"schedulesync/core/cache"
	"schedulesync/core/database"
	"schedulesync/core/middleware"
	"schedulesync/modules/auth/controller"
	"schedulesync/modules/auth/repository"
	"schedulesync/modules/auth/router"
	"schedulesync/modules/auth/service"
	calendarservice "schedulesync/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init wires the auth module and returns its service so the availability and
// booking modules can resolve hosts from public references.
func Init(e *echo.Echo, db database.IDatabase, cache cache.Cache, mw *middleware.Middleware, calendarSvc calendarservice.CalendarService) service.AuthServiceInterface {
	repo := repository.NewAuthRepository(db)
	authService := service.NewAuthService(repo, cache, calendarSvc)
	ctrl := controller.NewAuthController(authService)

	router.NewAuthRouter(ctrl).Setup(e, mw)
	return authService
}
