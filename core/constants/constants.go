package constants

import "time"

// Echo context keys
const (
	ContextTokenData = "token_data"
)

// JWT token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Database defaults
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Redis key prefixes
const (
	RedisKeyTokenBlacklist = "blacklist:"
	RedisKeyPublicToken    = "public_token:"
)

// Public-token cache TTL. Host rows change rarely; a short TTL keeps a
// disconnected host from being bookable for long.
const PublicTokenCacheTTL = 5 * time.Minute

// Booking defaults
const (
	DefaultSlotDurationMinutes = 30
	DefaultWorkingHoursStart   = "09:00"
	DefaultWorkingHoursEnd     = "17:00"
	DefaultDaysAhead           = 7

	// SlotStoreMaxRetries bounds the optimistic-conflict retry loop of the
	// slot store. A booking that loses this many CAS races in a row is
	// surfaced as an infrastructure failure, not a conflict.
	SlotStoreMaxRetries = 5
)
