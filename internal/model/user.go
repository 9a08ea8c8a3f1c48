package model

import "strings"

// User represents a backend account. The password is write-only and never
// part of a fetched user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsStaff  bool   `json:"is_staff"`
}

// RoleName returns the display name of the user's role.
func (u User) RoleName() string {
	if u.IsStaff {
		return "Admin"
	}
	return "User"
}

// UserDraft is the unsaved state of a user being created.
type UserDraft struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the draft before it is submitted.
func (d UserDraft) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return &ValidationError{Field: "username", Message: "Username is required."}
	}
	if d.Password == "" {
		return &ValidationError{Field: "password", Message: "Password is required."}
	}
	return nil
}
