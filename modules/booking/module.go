package booking

import (
	"time"

	"schedulesync/core/database"
	"schedulesync/core/middleware"
	availrepo "schedulesync/modules/availability/repository"
	"schedulesync/modules/booking/controller"
	"schedulesync/modules/booking/repository"
	"schedulesync/modules/booking/router"
	"schedulesync/modules/booking/service"

	"github.com/labstack/echo/v4"
)

// Init wires the booking module around the shared slot store. The returned
// reconciler is scheduled by the worker server.
func Init(
	e *echo.Echo,
	db database.IDatabase,
	mw *middleware.Middleware,
	store availrepo.SlotStore,
	hosts service.HostResolver,
	publisher service.EventPublisher,
	notifier service.Notifier,
	emails service.EmailEnqueuer,
	reconcileGrace time.Duration,
) *service.Reconciler {
	repo := repository.NewBookingRepository(db)
	engine := service.NewBookingEngine(store)
	svc := service.NewBookingService(engine, repo, hosts, publisher, notifier, emails)
	ctrl := controller.NewBookingController(svc)
	router.NewBookingRouter(ctrl).Setup(e, mw)

	return service.NewReconciler(store, repo, notifier, reconcileGrace)
}
