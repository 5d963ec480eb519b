package model

import (
	"fmt"
	"regexp"
	"time"
)

// Role controls which endpoints a user may call.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// IsValid checks whether the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// DefaultPic is the profile picture assigned when none is given.
const DefaultPic = "https://via.placeholder.com/150"

// User is an account that can log in. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Pic          string    `json:"pic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateRegistration checks the fields of a registration request.
func ValidateRegistration(username, password string, role Role, pic string) error {
	var ve ValidationError
	if n := len(username); n < 3 || n > 30 {
		ve.Errors = append(ve.Errors, FieldError{Field: "username", Message: "must be between 3 and 30 characters"})
	} else if !usernameRe.MatchString(username) {
		ve.Errors = append(ve.Errors, FieldError{Field: "username", Message: "can only contain letters, numbers, and underscores"})
	}
	if len(password) < 6 {
		ve.Errors = append(ve.Errors, FieldError{Field: "password", Message: "must be at least 6 characters long"})
	}
	if role != "" && !role.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{Field: "role", Message: fmt.Sprintf("invalid value %q (must be user, admin, or staff)", role)})
	}
	if pic != "" && !isAbsoluteURL(pic) {
		ve.Errors = append(ve.Errors, FieldError{Field: "pic", Message: "must be a valid URL"})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
