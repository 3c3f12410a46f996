package utils

import (
	"strings"

	"github.com/labstack/echo/v4"

	"schedulesync/core/errors"
)

// GetTokenFromHeader extracts the bearer token from the Authorization header.
func GetTokenFromHeader(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", errors.NewAppError(errors.ErrMissingAuthorizationHeader, "missing authorization header", nil)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid authorization header format", nil)
	}
	return parts[1], nil
}
