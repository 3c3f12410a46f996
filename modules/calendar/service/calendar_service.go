package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"schedulesync/core/config"
	"schedulesync/core/errors"
	"schedulesync/core/logger"
	"schedulesync/core/utils"
	"schedulesync/modules/calendar/dto"
	"schedulesync/modules/calendar/entity"
	"schedulesync/modules/calendar/repository"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleFreeBusyAPI     = googleCalendarAPIBase + "/freeBusy"
	googleEventsAPI       = googleCalendarAPIBase + "/calendars/primary/events"

	// tokenRefreshSkew refreshes tokens this long before expiry so a call
	// never races the deadline.
	tokenRefreshSkew = 5 * time.Minute
)

type CalendarService interface {
	SaveGoogleConnection(ctx context.Context, userID uuid.UUID, token *oauth2.Token, email string) (*entity.CalendarConnection, error)
	GetConnections(ctx context.Context, userID uuid.UUID) ([]dto.CalendarConnectionResponse, error)
	DisconnectCalendar(ctx context.Context, userID uuid.UUID, provider string) error
	GetFreeBusy(ctx context.Context, userID uuid.UUID, timeMin, timeMax time.Time) ([]entity.TimeRange, error)
	CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error)
}

type calendarService struct {
	repo       repository.CalendarRepository
	httpClient *http.Client
}

func NewCalendarService(repo repository.CalendarRepository) CalendarService {
	return &calendarService{
		repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// OAuthConfig builds the Google OAuth config used for both the consent flow
// and token refresh.
func OAuthConfig() *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURL:  cfg.GoogleAPI.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/calendar.events",
			"https://www.googleapis.com/auth/calendar.freebusy",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
	}
}

func encryptionKey() (*[32]byte, error) {
	cfg := config.Get()
	return utils.DecodeEncryptionKey(cfg.Encryption.Key)
}

// SaveGoogleConnection persists an OAuth token pair, encrypting both tokens
// before they touch the database.
func (s *calendarService) SaveGoogleConnection(ctx context.Context, userID uuid.UUID, token *oauth2.Token, email string) (*entity.CalendarConnection, error) {
	key, err := encryptionKey()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Encryption key unavailable", err)
	}

	accessEnc, err := utils.EncryptToken(token.AccessToken, key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encrypt access token", err)
	}
	refreshEnc, err := utils.EncryptToken(token.RefreshToken, key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encrypt refresh token", err)
	}

	existing, err := s.repo.GetConnectionByUserAndProvider(ctx, userID, dto.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.AccessToken = accessEnc
		// Google omits the refresh token on re-consent; keep the stored one.
		if token.RefreshToken != "" {
			existing.RefreshToken = refreshEnc
		}
		existing.TokenExpiresAt = token.Expiry
		existing.CalendarEmail = email
		existing.IsActive = true

		if err := s.repo.UpdateConnection(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	conn := &entity.CalendarConnection{
		UserID:         userID,
		Provider:       dto.ProviderGoogle,
		AccessToken:    accessEnc,
		RefreshToken:   refreshEnc,
		TokenExpiresAt: token.Expiry,
		CalendarEmail:  email,
		IsActive:       true,
	}
	return s.repo.CreateConnection(ctx, conn)
}

func (s *calendarService) GetConnections(ctx context.Context, userID uuid.UUID) ([]dto.CalendarConnectionResponse, error) {
	connections, err := s.repo.GetConnectionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CalendarConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		result = append(result, dto.CalendarConnectionResponse{
			ID:            conn.ID.String(),
			Provider:      conn.Provider,
			CalendarEmail: conn.CalendarEmail,
			IsActive:      conn.IsActive,
			ConnectedAt:   conn.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *calendarService) DisconnectCalendar(ctx context.Context, userID uuid.UUID, provider string) error {
	return s.repo.DeactivateConnection(ctx, userID, provider)
}

// GetFreeBusy returns the user's busy intervals between timeMin and timeMax.
func (s *calendarService) GetFreeBusy(ctx context.Context, userID uuid.UUID, timeMin, timeMax time.Time) ([]entity.TimeRange, error) {
	conn, err := s.repo.GetConnectionByUserAndProvider(ctx, userID, dto.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No Google Calendar connected", nil)
	}

	accessToken, err := s.ensureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"timeMin": timeMin.UTC().Format(time.RFC3339),
		"timeMax": timeMax.UTC().Format(time.RFC3339),
		"items": []map[string]string{
			{"id": conn.CalendarEmail},
		},
	}

	payloadJSON, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleFreeBusyAPI, strings.NewReader(string(payloadJSON)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpstream, "Google FreeBusy request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:GetFreeBusy:UpstreamError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrUpstream, fmt.Sprintf("Google FreeBusy API error: %d", resp.StatusCode), nil)
	}

	var result struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewAppError(errors.ErrUpstream, "Failed to parse FreeBusy response", err)
	}

	var busy []entity.TimeRange
	if cal, ok := result.Calendars[conn.CalendarEmail]; ok {
		for _, b := range cal.Busy {
			start, err1 := time.Parse(time.RFC3339, b.Start)
			end, err2 := time.Parse(time.RFC3339, b.End)
			if err1 != nil || err2 != nil {
				logger.Warn("CalendarService:GetFreeBusy:BadInterval", "start", b.Start, "end", b.End)
				continue
			}
			busy = append(busy, entity.TimeRange{Start: start.UTC(), End: end.UTC()})
		}
	}
	return busy, nil
}

// CreateEvent creates an event on the user's primary calendar with a Meet
// conference attached.
func (s *calendarService) CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error) {
	conn, err := s.repo.GetConnectionByUserAndProvider(ctx, userID, dto.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No Google Calendar connected", nil)
	}

	accessToken, err := s.ensureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	event := map[string]any{
		"summary":     req.Title,
		"description": req.Description,
		"start": map[string]string{
			"dateTime": req.StartTime.UTC().Format(time.RFC3339),
			"timeZone": "UTC",
		},
		"end": map[string]string{
			"dateTime": req.EndTime.UTC().Format(time.RFC3339),
			"timeZone": "UTC",
		},
		"conferenceData": map[string]any{
			"createRequest": map[string]any{
				"requestId": utils.GenerateRequestID(),
				"conferenceSolutionKey": map[string]string{
					"type": "hangoutsMeet",
				},
			},
		},
	}

	if len(req.Attendees) > 0 {
		attendees := make([]map[string]string, len(req.Attendees))
		for i, email := range req.Attendees {
			attendees[i] = map[string]string{"email": email}
		}
		event["attendees"] = attendees
	}

	eventJSON, _ := json.Marshal(event)
	url := googleEventsAPI + "?conferenceDataVersion=1"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(eventJSON)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpstream, "Failed to create calendar event", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:CreateEvent:UpstreamError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrUpstream, fmt.Sprintf("Google Events API error: %d", resp.StatusCode), nil)
	}

	var result struct {
		ID             string `json:"id"`
		HTMLLink       string `json:"htmlLink"`
		HangoutLink    string `json:"hangoutLink"`
		ConferenceData struct {
			EntryPoints []struct {
				EntryPointType string `json:"entryPointType"`
				URI            string `json:"uri"`
			} `json:"entryPoints"`
		} `json:"conferenceData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewAppError(errors.ErrUpstream, "Failed to parse event response", err)
	}

	meetingLink := result.HangoutLink
	if meetingLink == "" {
		for _, ep := range result.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				meetingLink = ep.URI
				break
			}
		}
	}

	logger.Info("CalendarService:CreateEvent:Success", "user_id", userID, "event_id", result.ID)

	return &dto.CreateEventResponse{
		EventID:     result.ID,
		Title:       req.Title,
		StartTime:   req.StartTime.UTC().Format(time.RFC3339),
		EndTime:     req.EndTime.UTC().Format(time.RFC3339),
		MeetingLink: meetingLink,
		HTMLLink:    result.HTMLLink,
	}, nil
}

// ensureValidToken decrypts the stored token pair and refreshes it when
// within the expiry skew, persisting the rotated ciphertext.
func (s *calendarService) ensureValidToken(ctx context.Context, conn *entity.CalendarConnection) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Encryption key unavailable", err)
	}

	accessToken, err := utils.DecryptToken(conn.AccessToken, key)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to decrypt access token", err)
	}

	if time.Now().Before(conn.TokenExpiresAt.Add(-tokenRefreshSkew)) {
		return accessToken, nil
	}

	refreshToken, err := utils.DecryptToken(conn.RefreshToken, key)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to decrypt refresh token", err)
	}
	if refreshToken == "" {
		return "", errors.NewAppError(errors.ErrUpstream, "Calendar token expired and no refresh token on file", nil)
	}

	logger.Info("CalendarService:EnsureValidToken:Refreshing", "user_id", conn.UserID)

	source := OAuthConfig().TokenSource(ctx, &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       conn.TokenExpiresAt,
	})
	fresh, err := source.Token()
	if err != nil {
		logger.Error("CalendarService:EnsureValidToken:RefreshError", "user_id", conn.UserID, "error", err)
		return "", errors.NewAppError(errors.ErrUpstream, "Failed to refresh calendar token", err)
	}

	accessEnc, err := utils.EncryptToken(fresh.AccessToken, key)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to encrypt refreshed token", err)
	}
	conn.AccessToken = accessEnc
	conn.TokenExpiresAt = fresh.Expiry
	if fresh.RefreshToken != "" && fresh.RefreshToken != refreshToken {
		if refreshEnc, encErr := utils.EncryptToken(fresh.RefreshToken, key); encErr == nil {
			conn.RefreshToken = refreshEnc
		}
	}

	if err := s.repo.UpdateConnection(ctx, conn); err != nil {
		logger.Error("CalendarService:EnsureValidToken:PersistError", "user_id", conn.UserID, "error", err)
	}

	return fresh.AccessToken, nil
}
