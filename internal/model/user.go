package model

import (
	"fmt"
	"time"
)

// User is an API account. Users are unrelated to the OwnerInfo parties of a transfer.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

var roleRank = map[string]int{
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// RoleAtLeast reports whether role ranks at or above minimum. Unknown roles
// on either side never pass.
func RoleAtLeast(role, minimum string) bool {
	have, okRole := roleRank[role]
	need, okMin := roleRank[minimum]
	return okRole && okMin && have >= need
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
