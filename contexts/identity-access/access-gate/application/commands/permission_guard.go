package commands

import (
	"context"
	"strings"
	"time"

	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"
)

const moduleName = "identity-access/access-gate"

func ensureActorPermission(
	ctx context.Context,
	repository ports.Repository,
	actorID string,
	permission string,
) error {
	if strings.TrimSpace(actorID) == "" {
		return domainerrors.ErrInvalidActorID
	}
	permissions, err := repository.ListEffectivePermissions(ctx, actorID)
	if err != nil {
		return err
	}
	if !services.GrantsPermission(permissions, permission) {
		return domainerrors.ErrForbidden
	}
	return nil
}

func invalidateCache(ctx context.Context, cache ports.PermissionCache, principalID string) error {
	if cache == nil {
		return nil
	}
	return cache.Invalidate(ctx, principalID)
}

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
