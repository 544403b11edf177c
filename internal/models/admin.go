package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values carried in JWT claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Admin is the back-office principal, separate from participant accounts.
type Admin struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
