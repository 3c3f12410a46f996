package controller

import (
	"net/http"

	"schedulesync/core/constants"
	basecontroller "schedulesync/core/controller"
	"schedulesync/core/errors"
	"schedulesync/core/logger"
	"schedulesync/core/utils"
	"schedulesync/modules/auth/dto"
	"schedulesync/modules/auth/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthController struct {
	basecontroller.BaseController
	AuthService service.AuthServiceInterface
}

func NewAuthController(authService service.AuthServiceInterface) *AuthController {
	return &AuthController{
		BaseController: basecontroller.NewBaseController(),
		AuthService:    authService,
	}
}

// GoogleAuth handles GET /api/auth/login. It returns the consent URL as JSON
// so SPA clients can open it themselves instead of following a redirect.
func (controller *AuthController) GoogleAuth(c echo.Context) error {
	ctx := c.Request().Context()

	authURL, err := controller.AuthService.GetGoogleAuthURL(ctx)
	if err != nil {
		return controller.ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, dto.AuthURLResponse{AuthorizationURL: authURL})
}

// GoogleCallback handles GET /api/auth/callback
func (controller *AuthController) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	errorParam := c.QueryParam("error")

	if errorParam != "" {
		logger.Warn("AuthController:GoogleCallback:ProviderError", "error", errorParam,
			"description", c.QueryParam("error_description"))
		return controller.BadRequest(errors.ErrInvalidRequestData, "Google OAuth error: "+errorParam)
	}
	if code == "" {
		return controller.BadRequest(errors.ErrInvalidRequestData, "authorization code is required")
	}
	if state == "" {
		return controller.BadRequest(errors.ErrInvalidRequestData, "state parameter is required")
	}

	loginResponse, err := controller.AuthService.HandleGoogleCallback(ctx, code, state)
	if err != nil {
		return controller.ErrorResponse(c, err)
	}

	return controller.SuccessResponse(c, loginResponse, "Google login success")
}

func (controller *AuthController) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := utils.GetTokenFromHeader(c)
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidRequestData, "Invalid token")
	}

	if errLogout := controller.AuthService.Logout(ctx, token); errLogout != nil {
		logger.Error("AuthController:Logout:Error", "error", errLogout)
		return controller.ErrorResponse(c, errLogout)
	}

	return controller.SuccessResponse(c, nil, "Logout success")
}

func (controller *AuthController) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := utils.GetTokenFromHeader(c)
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidRequestData, "Invalid token")
	}

	refreshTokenResponse, errRefresh := controller.AuthService.RefreshToken(ctx, token)
	if errRefresh != nil {
		return controller.ErrorResponse(c, errRefresh)
	}

	return controller.SuccessResponse(c, refreshTokenResponse, "Refresh token success")
}

// GetMe handles GET /api/v1/private/auth/me
func (controller *AuthController) GetMe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := controller.getUserIDFromContext(c)
	if err != nil {
		return controller.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	me, appErr := controller.AuthService.GetMe(ctx, userID)
	if appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, me, "Success")
}

func (controller *AuthController) getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	tokenData := c.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}
	return claims.UserID, nil
}
