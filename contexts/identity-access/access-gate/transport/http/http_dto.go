package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantRoleRequest struct {
	PrincipalID string `json:"principal_id"`
	RoleID      string `json:"role_id"`
	Reason      string `json:"reason"`
}

type RevokeRoleRequest struct {
	PrincipalID string `json:"principal_id"`
	RoleID      string `json:"role_id"`
}

type RoleAssignmentResponse struct {
	AssignmentID string     `json:"assignment_id"`
	PrincipalID  string     `json:"principal_id"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name"`
	AssignedBy   string     `json:"assigned_by"`
	AssignedAt   time.Time  `json:"assigned_at"`
	IsActive     bool       `json:"is_active"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

type ListRolesResponse struct {
	PrincipalID string                   `json:"principal_id"`
	Roles       []RoleAssignmentResponse `json:"roles"`
}

type RegisterVoterRequest struct {
	Attributes map[string]string `json:"attributes"`
}

type VoterResponse struct {
	VoterID      string            `json:"voter_id"`
	Attributes   map[string]string `json:"attributes"`
	RegisteredAt time.Time         `json:"registered_at"`
	Verified     bool              `json:"verified"`
	VerifiedBy   string            `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time        `json:"verified_at,omitempty"`
}

type CheckPermissionResponse struct {
	PrincipalID string    `json:"principal_id"`
	Permission  string    `json:"permission"`
	Allowed     bool      `json:"allowed"`
	Reason      string    `json:"reason"`
	CheckedAt   time.Time `json:"checked_at"`
	CacheHit    bool      `json:"cache_hit"`
}

type CheckPermissionRequest struct {
	PrincipalID string `json:"principal_id"`
	Permission  string `json:"permission"`
}
