package controller

import (
	"schedulesync/core/constants"
	basecontroller "schedulesync/core/controller"
	"schedulesync/core/errors"
	"schedulesync/core/utils"
	"schedulesync/modules/calendar/dto"
	"schedulesync/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	basecontroller.BaseController
	service service.CalendarService
}

func NewCalendarController(svc service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController: basecontroller.NewBaseController(),
		service:        svc,
	}
}

func (c *CalendarController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}
	return claims.UserID, nil
}

// GetConnections handles GET /calendar/connections
func (c *CalendarController) GetConnections(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	connections, err := c.service.GetConnections(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, dto.CalendarConnectionListResponse{Connections: connections}, "Success")
}

// DisconnectCalendar handles DELETE /calendar/connections/:provider
func (c *CalendarController) DisconnectCalendar(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	provider := ctx.Param("provider")
	if provider != dto.ProviderGoogle {
		return c.BadRequest(errors.ErrInvalidInput, "Unsupported provider")
	}

	if err := c.service.DisconnectCalendar(ctx.Request().Context(), userID, provider); err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, nil, "Calendar disconnected")
}
