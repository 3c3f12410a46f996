package entity

import (
	"schedulesync/core/entity"
)

// User is a host account created on first Google sign-in. PublicToken and
// PublicSlug both resolve to the user's booking page; the slug is the vanity
// alias.
type User struct {
	entity.BaseEntity
	Email       string `db:"email" json:"email"`
	DisplayName string `db:"display_name" json:"display_name"`
	PublicToken string `db:"public_token" json:"public_token"`
	PublicSlug  string `db:"public_slug" json:"public_slug"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

func (User) TableName() string {
	return "users"
}
