package dto

// AuthURLResponse carries the Google consent URL for the client to open.
type AuthURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// LoginResponse is the JWT pair issued after a successful Google callback.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse is the rotated JWT pair.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the authenticated user's profile.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PublicToken string `json:"public_token"`
	PublicSlug  string `json:"public_slug"`
	BookingURL  string `json:"booking_url"`
}
