package notification

import (
	"github.com/labstack/echo/v4"

	"schedulesync/core/database"
	"schedulesync/core/middleware"
	"schedulesync/modules/notification/controller"
	"schedulesync/modules/notification/repository"
	"schedulesync/modules/notification/router"
	"schedulesync/modules/notification/service"
)

func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Setup(e, mw)

	return svc
}
