package entity

import (
	"time"

	"schedulesync/core/entity"
)

// OAuthState is a one-time CSRF token for the Google consent flow.
type OAuthState struct {
	State     string    `db:"state"`
	ExpiresAt time.Time `db:"expires_at"`
	entity.BaseEntity
}
