package entities

import "time"

// Role models a permission bundle that can be assigned to principals.
type Role struct {
	RoleID      string   `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// RoleAssignment captures an active or historical principal-role relation.
type RoleAssignment struct {
	AssignmentID string     `json:"assignment_id"`
	PrincipalID  string     `json:"principal_id"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name"`
	AssignedBy   string     `json:"assigned_by"`
	Reason       string     `json:"reason"`
	AssignedAt   time.Time  `json:"assigned_at"`
	IsActive     bool       `json:"is_active"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}
