package commands

import (
	"context"
	"log/slog"
	"strings"

	application "agora/contexts/identity-access/access-gate/application"
	"agora/contexts/identity-access/access-gate/domain/entities"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"
)

type RevokeRoleCommand struct {
	PrincipalID string
	RoleID      string
	ActorID     string
}

type RevokeRoleUseCase struct {
	Repository      ports.Repository
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	Logger          *slog.Logger
}

func (u RevokeRoleUseCase) Execute(ctx context.Context, cmd RevokeRoleCommand) (entities.RoleAssignment, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.PrincipalID = strings.TrimSpace(cmd.PrincipalID)
	cmd.RoleID = strings.TrimSpace(cmd.RoleID)
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)

	if cmd.PrincipalID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidPrincipalID
	}
	if cmd.RoleID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidRoleID
	}
	if err := ensureActorPermission(ctx, u.Repository, cmd.ActorID, services.PermissionRevokeRole); err != nil {
		return entities.RoleAssignment{}, err
	}

	assignment, err := u.Repository.RevokeRole(ctx, ports.RevokeRoleInput{
		PrincipalID: cmd.PrincipalID,
		RoleID:      cmd.RoleID,
		ActorID:     cmd.ActorID,
		RevokedAt:   resolveNow(u.Clock),
	})
	if err != nil {
		logger.Error("revoke role write failed",
			"event", "access_revoke_role_write_failed",
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
		logger.Warn("permission cache invalidate failed after role revoke",
			"event", "access_cache_invalidation_failed",
			"module", moduleName,
			"layer", "application",
			"principal_id", cmd.PrincipalID,
			"error", err.Error(),
		)
	}
	logger.Info("revoke role completed",
		"event", "access_revoke_role_completed",
		"module", moduleName,
		"layer", "application",
		"principal_id", cmd.PrincipalID,
		"actor_id", cmd.ActorID,
		"role_id", cmd.RoleID,
	)
	return assignment, nil
}
