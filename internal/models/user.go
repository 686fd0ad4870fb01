package models

import "time"

// User is an admin-managed system user. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Known user roles.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleEditor   = "editor"
	RoleViewer   = "viewer"
)

// Roles lists the assignable roles in display order.
var Roles = []string{RoleAdmin, RoleReviewer, RoleEditor, RoleViewer}
