package domain

import (
	"errors"
	"strings"
	"time"
)

// User mirrors an identity from the external identity provider. The service never authenticates users itself.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// Matches reports whether typed equals the user's display name or email, ignoring case and surrounding space.
func (u *User) Matches(typed string) bool {
	typed = strings.TrimSpace(typed)
	if u == nil || typed == "" {
		return false
	}
	if name := strings.TrimSpace(u.Name); name != "" && strings.EqualFold(typed, name) {
		return true
	}
	return strings.EqualFold(typed, u.Email)
}
