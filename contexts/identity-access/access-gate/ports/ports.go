package ports

import (
	"context"
	"time"

	"agora/contexts/identity-access/access-gate/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for assignment rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// PermissionCache stores effective permissions with TTL semantics.
type PermissionCache interface {
	Get(ctx context.Context, principalID string, now time.Time) ([]string, bool, error)
	Set(ctx context.Context, principalID string, permissions []string, expiresAt time.Time) error
	Invalidate(ctx context.Context, principalID string) error
}

type GrantRoleInput struct {
	AssignmentID string
	PrincipalID  string
	RoleID       string
	ActorID      string
	Reason       string
	AssignedAt   time.Time
}

type RevokeRoleInput struct {
	PrincipalID string
	RoleID      string
	ActorID     string
	RevokedAt   time.Time
}

type VerifyVoterInput struct {
	VoterID    string
	ActorID    string
	VerifiedAt time.Time
}

// Repository is the write/read boundary for access-gate state.
type Repository interface {
	ListEffectivePermissions(ctx context.Context, principalID string) ([]string, error)
	ListPrincipalRoles(ctx context.Context, principalID string) ([]entities.RoleAssignment, error)
	GrantRole(ctx context.Context, input GrantRoleInput) (entities.RoleAssignment, error)
	RevokeRole(ctx context.Context, input RevokeRoleInput) (entities.RoleAssignment, error)
	RegisterVoter(ctx context.Context, voter entities.VoterIdentity) error
	VerifyVoter(ctx context.Context, input VerifyVoterInput) (entities.VoterIdentity, error)
	GetVoter(ctx context.Context, voterID string) (entities.VoterIdentity, error)
}
