package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/identity-access/access-gate/application"
	"agora/contexts/identity-access/access-gate/domain/entities"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"
)

const (
	moduleName                = "identity-access/access-gate"
	defaultPermissionCacheTTL = 5 * time.Minute
)

type CheckPermissionQuery struct {
	PrincipalID string
	Permission  string
}

// CheckPermissionUseCase orchestrates cache-first permission evaluation.
type CheckPermissionUseCase struct {
	Repository         ports.Repository
	PermissionCache    ports.PermissionCache
	Clock              ports.Clock
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

// Execute evaluates a permission and returns deny-by-default on lookup failures.
func (u CheckPermissionUseCase) Execute(ctx context.Context, query CheckPermissionQuery) (entities.PermissionDecision, error) {
	principalID := strings.TrimSpace(query.PrincipalID)
	if principalID == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidPrincipalID
	}
	if strings.TrimSpace(query.Permission) == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidPermission
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	permissions, cacheHit, err := u.loadPermissions(ctx, principalID, now)
	if err != nil {
		logger.Error("permission lookup failed, deny by default",
			"event", "access_permission_lookup_failed",
			"module", moduleName,
			"layer", "application",
			"principal_id", principalID,
			"permission", query.Permission,
			"error", err.Error(),
		)
		return entities.PermissionDecision{
			PrincipalID: principalID,
			Permission:  query.Permission,
			Reason:      "deny_by_default",
			CheckedAt:   now,
		}, nil
	}

	allowed := services.GrantsPermission(permissions, query.Permission)
	reason := "permission_granted"
	if !allowed {
		reason = "permission_missing"
	}
	logger.Debug("check permission evaluated",
		"event", "access_check_evaluated",
		"module", moduleName,
		"layer", "application",
		"principal_id", principalID,
		"permission", query.Permission,
		"allowed", allowed,
		"cache_hit", cacheHit,
	)
	return entities.PermissionDecision{
		PrincipalID: principalID,
		Permission:  query.Permission,
		Allowed:     allowed,
		Reason:      reason,
		CheckedAt:   now,
		CacheHit:    cacheHit,
	}, nil
}

func (u CheckPermissionUseCase) loadPermissions(
	ctx context.Context,
	principalID string,
	now time.Time,
) ([]string, bool, error) {
	if u.PermissionCache != nil {
		items, hit, err := u.PermissionCache.Get(ctx, principalID, now)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return items, true, nil
		}
	}

	permissions, err := u.Repository.ListEffectivePermissions(ctx, principalID)
	if err != nil {
		return nil, false, err
	}

	if u.PermissionCache != nil {
		_ = u.PermissionCache.Set(ctx, principalID, permissions, now.Add(u.cacheTTL()))
	}
	return permissions, false, nil
}

func (u CheckPermissionUseCase) cacheTTL() time.Duration {
	if u.PermissionCacheTTL <= 0 {
		return defaultPermissionCacheTTL
	}
	return u.PermissionCacheTTL
}

func (u CheckPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
