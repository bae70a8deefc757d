package model

import "strings"

// Role controls which operations a user may perform.
type Role string

const (
	RoleCommon Role = "common"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCommon || r == RoleAdmin
}

// User is an account that earns points by completing tasks and spends
// them on products.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Role         Role   `json:"role"`

	// TotalPoints is the lifetime amount earned. It never decreases.
	TotalPoints int `json:"totalPoints"`

	// CurrentPoints is the spendable balance.
	CurrentPoints int `json:"currentPoints"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SameUsername compares usernames the way uniqueness is enforced:
// case-insensitively and ignoring surrounding whitespace.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
