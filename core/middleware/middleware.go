package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"schedulesync/core/cache"
	"schedulesync/core/constants"
	"schedulesync/core/controller"
	"schedulesync/core/errors"
	"schedulesync/core/logger"
	"schedulesync/core/utils"
)

type Middleware struct {
	cache cache.Cache
	base  controller.BaseController
}

func NewMiddleware(cache cache.Cache) *Middleware {
	return &Middleware{
		cache: cache,
		base:  controller.NewBaseController(),
	}
}

// AuthMiddleware validates the Bearer token and stores claims in context.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return m.base.Unauthorized(errors.ErrMissingAuthorizationHeader, "Authorization header is required", nil)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return m.base.Unauthorized(errors.ErrInvalidTokenFormat, "Authorization header must be a Bearer token", nil)
			}
			token := parts[1]

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:InvalidToken", "error", err)
				return m.base.Unauthorized(errors.ErrUnauthorized, "Invalid or expired token", nil)
			}

			if claims.Scope != constants.ScopeTokenAccess {
				return m.base.Unauthorized(errors.ErrUnauthorized, "Token scope is not valid for API access", nil)
			}

			if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) <= 0 {
				return m.base.Unauthorized(errors.ErrTokenExpired, "Token has expired", nil)
			}

			if m.cache != nil {
				blacklisted, err := m.cache.IsTokenBlacklisted(c.Request().Context(), token)
				if err != nil {
					logger.Error("Middleware:AuthMiddleware:BlacklistCheck:Error", "error", err)
				} else if blacklisted {
					return m.base.Unauthorized(errors.ErrUnauthorized, "Token has been revoked", nil)
				}
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// PublicRateLimiter throttles unauthenticated endpoints per client IP.
func (m *Middleware) PublicRateLimiter() echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(10),
			Burst:     20,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}
