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

type RegisterVoterCommand struct {
	VoterID    string
	Attributes map[string]string
}

type VerifyVoterCommand struct {
	VoterID string
	ActorID string
}

// VoterUseCase registers voters and records verification decisions.
type VoterUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u VoterUseCase) Register(ctx context.Context, cmd RegisterVoterCommand) (entities.VoterIdentity, error) {
	logger := application.ResolveLogger(u.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	if voterID == "" {
		return entities.VoterIdentity{}, domainerrors.ErrInvalidPrincipalID
	}
	attributes, err := services.NormalizeAttributes(cmd.Attributes)
	if err != nil {
		return entities.VoterIdentity{}, err
	}
	voter := entities.VoterIdentity{
		VoterID:      voterID,
		Attributes:   attributes,
		RegisteredAt: resolveNow(u.Clock),
	}
	if err := u.Repository.RegisterVoter(ctx, voter); err != nil {
		logger.Warn("voter registration failed",
			"event", "access_voter_register_failed",
			"module", moduleName,
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return entities.VoterIdentity{}, err
	}
	logger.Info("voter registered",
		"event", "access_voter_registered",
		"module", moduleName,
		"layer", "application",
		"voter_id", voterID,
		"attributes", len(attributes),
	)
	return voter, nil
}

func (u VoterUseCase) Verify(ctx context.Context, cmd VerifyVoterCommand) (entities.VoterIdentity, error) {
	logger := application.ResolveLogger(u.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if voterID == "" {
		return entities.VoterIdentity{}, domainerrors.ErrInvalidPrincipalID
	}
	if err := ensureActorPermission(ctx, u.Repository, actorID, services.PermissionVerify); err != nil {
		return entities.VoterIdentity{}, err
	}
	voter, err := u.Repository.VerifyVoter(ctx, ports.VerifyVoterInput{
		VoterID:    voterID,
		ActorID:    actorID,
		VerifiedAt: resolveNow(u.Clock),
	})
	if err != nil {
		logger.Warn("voter verification failed",
			"event", "access_voter_verify_failed",
			"module", moduleName,
			"layer", "application",
			"voter_id", voterID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return entities.VoterIdentity{}, err
	}
	logger.Info("voter verified",
		"event", "access_voter_verified",
		"module", moduleName,
		"layer", "application",
		"voter_id", voterID,
		"actor_id", actorID,
	)
	return voter, nil
}
