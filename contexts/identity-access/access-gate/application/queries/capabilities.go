package queries

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

// CapabilityQueries answers the three questions the ledger asks about a
// principal. Unknown principals have no capabilities.
type CapabilityQueries struct {
	Permissions CheckPermissionUseCase
	Repository  ports.Repository
	Logger      *slog.Logger
}

func (q CapabilityQueries) IsVerified(ctx context.Context, principalID string) (bool, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return false, nil
	}
	voter, err := q.Repository.GetVoter(ctx, principalID)
	if errors.Is(err, domainerrors.ErrVoterNotFound) {
		return false, nil
	}
	if err != nil {
		application.ResolveLogger(q.Logger).Error("voter lookup failed",
			"event", "access_voter_lookup_failed",
			"module", moduleName,
			"layer", "application",
			"voter_id", principalID,
			"error", err.Error(),
		)
		return false, err
	}
	return voter.Verified, nil
}

func (q CapabilityQueries) IsAuthorizedCaller(ctx context.Context, principalID string) (bool, error) {
	return q.allowed(ctx, principalID, services.PermissionInvoke)
}

func (q CapabilityQueries) IsAdmin(ctx context.Context, principalID string) (bool, error) {
	return q.allowed(ctx, principalID, services.PermissionAdminister)
}

func (q CapabilityQueries) allowed(ctx context.Context, principalID string, permission string) (bool, error) {
	if strings.TrimSpace(principalID) == "" {
		return false, nil
	}
	decision, err := q.Permissions.Execute(ctx, CheckPermissionQuery{
		PrincipalID: principalID,
		Permission:  permission,
	})
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

func (q CapabilityQueries) GetVoter(ctx context.Context, voterID string) (entities.VoterIdentity, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return entities.VoterIdentity{}, domainerrors.ErrInvalidPrincipalID
	}
	return q.Repository.GetVoter(ctx, voterID)
}

func (q CapabilityQueries) ListPrincipalRoles(ctx context.Context, principalID string) ([]entities.RoleAssignment, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil, domainerrors.ErrInvalidPrincipalID
	}
	return q.Repository.ListPrincipalRoles(ctx, principalID)
}
