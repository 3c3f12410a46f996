package controller

import (
	"schedulesync/core/constants"
	basecontroller "schedulesync/core/controller"
	"schedulesync/core/errors"
	"schedulesync/core/utils"
	"schedulesync/modules/availability/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AvailabilityController struct {
	basecontroller.BaseController
	AvailabilityService service.AvailabilityServiceInterface
}

func NewAvailabilityController(svc service.AvailabilityServiceInterface) *AvailabilityController {
	return &AvailabilityController{
		BaseController:      basecontroller.NewBaseController(),
		AvailabilityService: svc,
	}
}

func (c *AvailabilityController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// RegenerateSlots handles POST /api/user/me/slots
func (c *AvailabilityController) RegenerateSlots(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.AvailabilityService.RegenerateSlots(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Slots regenerated")
}

// GetOwnSlots handles GET /api/user/me/slots
func (c *AvailabilityController) GetOwnSlots(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.AvailabilityService.GetOwnSlots(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetPublicSlots handles GET /api/slots/:ref for guests. The ref may be a
// public token or a vanity slug.
func (c *AvailabilityController) GetPublicSlots(ctx echo.Context) error {
	ref := ctx.Param("ref")
	if ref == "" {
		return c.BadRequest(errors.ErrInvalidInput, "booking reference is required")
	}

	result, appErr := c.AvailabilityService.GetPublicSlots(ctx.Request().Context(), ref)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}
