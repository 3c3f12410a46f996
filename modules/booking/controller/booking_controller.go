package controller

import (
	"net/http"

	"schedulesync/core/constants"
	basecontroller "schedulesync/core/controller"
	"schedulesync/core/errors"
	"schedulesync/core/utils"
	"schedulesync/modules/booking/dto"
	"schedulesync/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	basecontroller.BaseController
	BookingService service.BookingService
}

func NewBookingController(svc service.BookingService) *BookingController {
	return &BookingController{
		BaseController: basecontroller.NewBaseController(),
		BookingService: svc,
	}
}

func (c *BookingController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// CreateBooking handles POST /api/bookings for unauthenticated guests.
// Host-resolution failures are 404, slot conflicts are 409 and upstream or
// infrastructure failures are 500.
func (c *BookingController) CreateBooking(ctx echo.Context) error {
	var req dto.CreateBookingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	result, appErr := c.BookingService.Book(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, result.Message)
}

// ListBookings handles GET /api/v1/private/bookings
func (c *BookingController) ListBookings(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	records, appErr := c.BookingService.ListBookings(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, records, "Success")
}

// ExportICal handles GET /api/v1/private/bookings/ical
func (c *BookingController) ExportICal(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	payload, appErr := c.BookingService.ExportICal(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bookings.ics"`)
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
}
