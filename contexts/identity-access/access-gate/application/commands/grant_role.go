package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "agora/contexts/identity-access/access-gate/application"
	"agora/contexts/identity-access/access-gate/domain/entities"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"
)

// SystemActor is recorded as the assigner of seeded roles.
const SystemActor = "system"

type GrantRoleCommand struct {
	PrincipalID string
	RoleID      string
	ActorID     string
	Reason      string
}

// GrantRoleUseCase assigns a role to a principal on behalf of an actor that
// holds access.grant_role.
type GrantRoleUseCase struct {
	Repository      ports.Repository
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	Logger          *slog.Logger
}

func (u GrantRoleUseCase) Execute(ctx context.Context, cmd GrantRoleCommand) (entities.RoleAssignment, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.PrincipalID = strings.TrimSpace(cmd.PrincipalID)
	cmd.RoleID = strings.TrimSpace(cmd.RoleID)
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	logger.Info("grant role started",
		"event", "access_grant_role_started",
		"module", moduleName,
		"layer", "application",
		"principal_id", cmd.PrincipalID,
		"actor_id", cmd.ActorID,
		"role_id", cmd.RoleID,
	)

	if cmd.PrincipalID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidPrincipalID
	}
	if cmd.RoleID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidRoleID
	}
	if err := ensureActorPermission(ctx, u.Repository, cmd.ActorID, services.PermissionGrantRole); err != nil {
		logger.Warn("grant role denied",
			"event", "access_grant_role_denied",
			"module", moduleName,
			"layer", "application",
			"principal_id", cmd.PrincipalID,
			"actor_id", cmd.ActorID,
			"role_id", cmd.RoleID,
			"error", err.Error(),
		)
		return entities.RoleAssignment{}, err
	}
	return u.grant(ctx, cmd)
}

// Seed grants a role without an actor check. Bootstrap uses it for the
// configured admins and callers; an existing assignment is kept as is.
func (u GrantRoleUseCase) Seed(ctx context.Context, principalID string, roleID string) error {
	_, err := u.grant(ctx, GrantRoleCommand{
		PrincipalID: strings.TrimSpace(principalID),
		RoleID:      strings.TrimSpace(roleID),
		ActorID:     SystemActor,
		Reason:      "bootstrap",
	})
	if errors.Is(err, domainerrors.ErrRoleAlreadyAssigned) {
		return nil
	}
	return err
}

func (u GrantRoleUseCase) grant(ctx context.Context, cmd GrantRoleCommand) (entities.RoleAssignment, error) {
	logger := application.ResolveLogger(u.Logger)
	if cmd.PrincipalID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidPrincipalID
	}
	assignmentID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.RoleAssignment{}, err
	}
	assignment, err := u.Repository.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: assignmentID,
		PrincipalID:  cmd.PrincipalID,
		RoleID:       cmd.RoleID,
		ActorID:      cmd.ActorID,
		Reason:       cmd.Reason,
		AssignedAt:   resolveNow(u.Clock),
	})
	if err != nil {
		logger.Error("grant role write failed",
			"event", "access_grant_role_write_failed",
			"module", moduleName,
			"layer", "application",
			"principal_id", cmd.PrincipalID,
			"actor_id", cmd.ActorID,
			"role_id", cmd.RoleID,
			"error", err.Error(),
		)
		return entities.RoleAssignment{}, err
	}

	if err := invalidateCache(ctx, u.PermissionCache, cmd.PrincipalID); err != nil {
		logger.Warn("permission cache invalidate failed after role grant",
			"event", "access_cache_invalidation_failed",
			"module", moduleName,
			"layer", "application",
			"principal_id", cmd.PrincipalID,
			"error", err.Error(),
		)
	}

	logger.Info("grant role completed",
		"event", "access_grant_role_completed",
		"module", moduleName,
		"layer", "application",
		"principal_id", cmd.PrincipalID,
		"actor_id", cmd.ActorID,
		"role_id", cmd.RoleID,
		"assignment_id", assignment.AssignmentID,
	)
	return assignment, nil
}
