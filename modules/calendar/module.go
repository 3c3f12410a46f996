package calendar

import (
	"schedulesync/core/database"
	"schedulesync/core/middleware"
	"schedulesync/modules/calendar/controller"
	"schedulesync/modules/calendar/repository"
	"schedulesync/modules/calendar/router"
	"schedulesync/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init wires the calendar module and returns its service so the booking and
// availability modules can reach the provider.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) service.CalendarService {
	repo := repository.NewCalendarRepository(db)
	svc := service.NewCalendarService(repo)
	ctrl := controller.NewCalendarController(svc)
	rtr := router.NewCalendarRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
