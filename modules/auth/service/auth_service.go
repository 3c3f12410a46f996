package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/oauth2"

	"schedulesync/core/cache"
	"schedulesync/core/config"
	"schedulesync/core/constants"
	"schedulesync/core/errors"
	"schedulesync/core/logger"
	"schedulesync/core/utils"
	"schedulesync/modules/auth/dto"
	"schedulesync/modules/auth/entity"
	"schedulesync/modules/auth/repository"
	calendarservice "schedulesync/modules/calendar/service"
)

type AuthServiceInterface interface {
	GetGoogleAuthURL(ctx context.Context) (string, *errors.AppError)
	HandleGoogleCallback(ctx context.Context, code, state string) (*dto.LoginResponse, *errors.AppError)
	Logout(ctx context.Context, token string) *errors.AppError
	RefreshToken(ctx context.Context, token string) (*dto.RefreshTokenResponse, *errors.AppError)
	GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, *errors.AppError)
	ResolveHost(ctx context.Context, ref string) (*entity.User, *errors.AppError)
}

type AuthService struct {
	repo        repository.AuthRepositoryInterface
	cache       cache.Cache
	calendarSvc calendarservice.CalendarService
}

func NewAuthService(repo repository.AuthRepositoryInterface, cache cache.Cache, calendarSvc calendarservice.CalendarService) *AuthService {
	return &AuthService{
		repo:        repo,
		cache:       cache,
		calendarSvc: calendarSvc,
	}
}

// GoogleUserInfo is the subset of the userinfo endpoint we consume.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GetGoogleAuthURL generates the Google OAuth authorization URL with a
// persisted one-time state token.
func (service *AuthService) GetGoogleAuthURL(ctx context.Context) (string, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok {
		return "", errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}
	if cfg.GoogleAPI.ClientID == "" || cfg.GoogleAPI.ClientSecret == "" || cfg.GoogleAPI.RedirectURI == "" {
		return "", errors.NewAppError(errors.ErrInternalServer, "Google OAuth configuration is missing", nil)
	}

	if err := service.repo.CleanupExpiredOAuthStates(ctx); err != nil {
		logger.Warn("AuthService:GetGoogleAuthURL:CleanupExpiredOAuthStates:Error", "error", err)
	}

	state := utils.GenerateRandomString(32)
	expiresAt := time.Now().Add(10 * time.Minute)
	if err := service.repo.SaveOAuthState(ctx, state, expiresAt); err != nil {
		logger.Error("AuthService:GetGoogleAuthURL:SaveOAuthState:Error", "error", err, "state", state)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store state token", err)
	}

	authURL := calendarservice.OAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return authURL, nil
}

// HandleGoogleCallback validates the state, exchanges the code, upserts the
// user and stores the calendar connection.
func (service *AuthService) HandleGoogleCallback(ctx context.Context, code, state string) (*dto.LoginResponse, *errors.AppError) {
	oauthState, err := service.repo.GetOAuthState(ctx, state)
	if err != nil {
		logger.Error("AuthService:HandleGoogleCallback:GetOAuthState:Error", "error", err, "state", state)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to validate state token", err)
	}
	if oauthState == nil {
		logger.Warn("AuthService:HandleGoogleCallback:StateNotFound", "state", state)
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid or expired state token", nil)
	}

	// One-time use; a delete failure is not fatal.
	if err := service.repo.DeleteOAuthState(ctx, state); err != nil {
		logger.Error("AuthService:HandleGoogleCallback:DeleteOAuthState:Error", "error", err, "state", state)
	}

	token, err := calendarservice.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		logger.Error("AuthService:HandleGoogleCallback:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to exchange authorization code", err)
	}

	userInfo, err := service.getGoogleUserInfo(ctx, token.AccessToken)
	if err != nil {
		logger.Error("AuthService:HandleGoogleCallback:GetGoogleUserInfo:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to get user info", err)
	}

	user, err := service.repo.GetUserByEmail(ctx, userInfo.Email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to get user", err)
	}

	if user == nil {
		publicSlug, slugErr := service.uniqueSlug(ctx, userInfo.Name)
		if slugErr != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to allocate booking slug", slugErr)
		}

		newUser := &entity.User{
			Email:       userInfo.Email,
			DisplayName: userInfo.Name,
			PublicToken: utils.GeneratePublicToken(),
			PublicSlug:  publicSlug,
			IsActive:    true,
		}
		created, createErr := service.repo.CreateUser(ctx, newUser)
		if createErr != nil {
			logger.Error("AuthService:HandleGoogleCallback:CreateUser:Error", "error", createErr)
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create user", createErr)
		}
		user = created
		logger.Info("AuthService:HandleGoogleCallback:UserCreated", "user_id", user.ID, "slug", user.PublicSlug)
	}

	if _, err := service.calendarSvc.SaveGoogleConnection(ctx, user.ID, token, userInfo.Email); err != nil {
		logger.Error("AuthService:HandleGoogleCallback:SaveGoogleConnection:Error", "error", err, "user_id", user.ID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save calendar connection", err)
	}

	cfg := config.Get()
	accessToken, err := utils.GenerateToken(user.ID, &user.Email, constants.ScopeTokenAccess,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate access token", err)
	}
	refreshToken, err := utils.GenerateToken(user.ID, &user.Email, constants.ScopeTokenRefresh,
		time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate refresh token", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (service *AuthService) Logout(ctx context.Context, token string) *errors.AppError {
	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		return errors.NewAppError(errors.ErrUnauthorized, "invalid token", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := service.cache.AddToTokenBlacklist(ctx, token, ttl); err != nil {
		logger.Error("AuthService:Logout:AddToBlacklist:Error", "error", err)
		return errors.NewAppError(errors.ErrInternalServer, "failed to add token to blacklist", err)
	}
	return nil
}

// RefreshToken rotates a refresh token into a new pair, retiring the old one.
func (service *AuthService) RefreshToken(ctx context.Context, token string) (*dto.RefreshTokenResponse, *errors.AppError) {
	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid refresh token", err)
	}
	if claims.Scope != constants.ScopeTokenRefresh {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "token is not a refresh token", nil)
	}

	blacklisted, err := service.cache.IsTokenBlacklisted(ctx, token)
	if err != nil {
		logger.Error("AuthService:RefreshToken:BlacklistCheck:Error", "error", err)
	}
	if blacklisted {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "refresh token has been revoked", nil)
	}

	cfg := config.Get()
	accessToken, err := utils.GenerateToken(claims.UserID, claims.Email, constants.ScopeTokenAccess,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate access token", err)
	}
	refreshToken, err := utils.GenerateToken(claims.UserID, claims.Email, constants.ScopeTokenRefresh,
		time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate refresh token", err)
	}

	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		if err := service.cache.AddToTokenBlacklist(ctx, token, ttl); err != nil {
			logger.Error("AuthService:RefreshToken:RetireOld:Error", "error", err)
		}
	}

	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (service *AuthService) GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, *errors.AppError) {
	user, err := service.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}

	cfg := config.Get()
	return &dto.UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PublicToken: user.PublicToken,
		PublicSlug:  user.PublicSlug,
		BookingURL:  fmt.Sprintf("%s/api/slots/%s", cfg.Server.BaseURL, user.PublicSlug),
	}, nil
}

// ResolveHost maps a public booking reference (token or vanity slug) to the
// host user. Token hits are cached; a miss on both lookups is not found.
func (service *AuthService) ResolveHost(ctx context.Context, ref string) (*entity.User, *errors.AppError) {
	if cachedID, err := service.cache.GetPublicTokenUser(ctx, ref); err == nil && cachedID != "" {
		if userID, parseErr := uuid.Parse(cachedID); parseErr == nil {
			user, getErr := service.repo.GetUserByID(ctx, userID)
			if getErr == nil && user != nil && user.IsActive {
				return user, nil
			}
			if getErr == nil {
				// Cached id points at a missing or deactivated user; drop
				// the entry and fall through to the table lookups.
				if invErr := service.cache.InvalidatePublicToken(ctx, ref); invErr != nil {
					logger.Warn("AuthService:ResolveHost:CacheInvalidate:Error", "error", invErr)
				}
			}
		}
	}

	user, err := service.repo.GetUserByPublicToken(ctx, ref)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve host", err)
	}
	if user == nil {
		user, err = service.repo.GetUserByPublicSlug(ctx, ref)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve host", err)
		}
	}
	if user == nil || !user.IsActive {
		return nil, errors.NewAppError(errors.ErrNotFound, "host not found", nil)
	}

	if err := service.cache.SetPublicTokenUser(ctx, ref, user.ID.String()); err != nil {
		logger.Warn("AuthService:ResolveHost:CacheSet:Error", "error", err)
	}
	return user, nil
}

func (service *AuthService) getGoogleUserInfo(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// uniqueSlug derives a vanity slug from the display name, suffixing on
// collision.
func (service *AuthService) uniqueSlug(ctx context.Context, displayName string) (string, error) {
	base := slug.Make(displayName)
	if base == "" {
		base = "host"
	}

	candidate := base
	for i := 2; i <= 10; i++ {
		exists, err := service.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, utils.GenerateRequestID()), nil
}
