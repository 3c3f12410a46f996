package entity

import (
	"time"

	"github.com/google/uuid"

	"schedulesync/core/entity"
)

// CalendarConnection stores a user's calendar provider connection. Token
// columns hold ciphertext; only the service layer ever sees plaintext.
type CalendarConnection struct {
	entity.BaseEntity
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Provider       string    `db:"provider" json:"provider"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string    `db:"calendar_email" json:"calendar_email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

func (CalendarConnection) TableName() string {
	return "calendar_connections"
}

// TimeRange is a half-open busy interval reported by a provider.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
