package availability

import (
	"schedulesync/core/database"
	"schedulesync/core/middleware"
	"schedulesync/modules/availability/controller"
	"schedulesync/modules/availability/repository"
	"schedulesync/modules/availability/router"
	"schedulesync/modules/availability/service"

	"github.com/labstack/echo/v4"
)

// Init wires the availability module. The returned store is shared with the
// booking module, which commits slot transitions through it.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware, freeBusy service.FreeBusyProvider, hosts service.HostResolver) repository.SlotStore {
	store := repository.NewSlotStore(db)
	svc := service.NewAvailabilityService(store, freeBusy, hosts)
	ctrl := controller.NewAvailabilityController(svc)
	rtr := router.NewAvailabilityRouter(ctrl)

	rtr.Setup(e, mw)
	return store
}
