package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/identity-access/access-gate/application/commands"
	"agora/contexts/identity-access/access-gate/application/queries"
	"agora/contexts/identity-access/access-gate/domain/entities"
	httptransport "agora/contexts/identity-access/access-gate/transport/http"
)

type Handler struct {
	GrantRole    commands.GrantRoleUseCase
	RevokeRole   commands.RevokeRoleUseCase
	Voters       commands.VoterUseCase
	Permissions  queries.CheckPermissionUseCase
	Capabilities queries.CapabilityQueries
	Logger       *slog.Logger
}

func (h Handler) GrantRoleHandler(ctx context.Context, actorID string, req httptransport.GrantRoleRequest) (httptransport.RoleAssignmentResponse, error) {
	assignment, err := h.GrantRole.Execute(ctx, commands.GrantRoleCommand{
		PrincipalID: req.PrincipalID,
		RoleID:      req.RoleID,
		ActorID:     actorID,
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.RoleAssignmentResponse{}, err
	}
	return mapAssignment(assignment), nil
}

func (h Handler) RevokeRoleHandler(ctx context.Context, actorID string, req httptransport.RevokeRoleRequest) (httptransport.RoleAssignmentResponse, error) {
	assignment, err := h.RevokeRole.Execute(ctx, commands.RevokeRoleCommand{
		PrincipalID: req.PrincipalID,
		RoleID:      req.RoleID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.RoleAssignmentResponse{}, err
	}
	return mapAssignment(assignment), nil
}

func (h Handler) ListRolesHandler(ctx context.Context, principalID string) (httptransport.ListRolesResponse, error) {
	assignments, err := h.Capabilities.ListPrincipalRoles(ctx, principalID)
	if err != nil {
		return httptransport.ListRolesResponse{}, err
	}
	response := httptransport.ListRolesResponse{
		PrincipalID: principalID,
		Roles:       make([]httptransport.RoleAssignmentResponse, 0, len(assignments)),
	}
	for _, assignment := range assignments {
		response.Roles = append(response.Roles, mapAssignment(assignment))
	}
	return response, nil
}

func (h Handler) RegisterVoterHandler(ctx context.Context, voterID string, req httptransport.RegisterVoterRequest) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.Register(ctx, commands.RegisterVoterCommand{
		VoterID:    voterID,
		Attributes: req.Attributes,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) VerifyVoterHandler(ctx context.Context, actorID string, voterID string) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.Verify(ctx, commands.VerifyVoterCommand{
		VoterID: voterID,
		ActorID: actorID,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) GetVoterHandler(ctx context.Context, voterID string) (httptransport.VoterResponse, error) {
	voter, err := h.Capabilities.GetVoter(ctx, voterID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) CheckPermissionHandler(ctx context.Context, principalID string, permission string) (httptransport.CheckPermissionResponse, error) {
	decision, err := h.Permissions.Execute(ctx, queries.CheckPermissionQuery{
		PrincipalID: principalID,
		Permission:  permission,
	})
	if err != nil {
		return httptransport.CheckPermissionResponse{}, err
	}
	return httptransport.CheckPermissionResponse{
		PrincipalID: decision.PrincipalID,
		Permission:  decision.Permission,
		Allowed:     decision.Allowed,
		Reason:      decision.Reason,
		CheckedAt:   decision.CheckedAt,
		CacheHit:    decision.CacheHit,
	}, nil
}

func mapAssignment(assignment entities.RoleAssignment) httptransport.RoleAssignmentResponse {
	return httptransport.RoleAssignmentResponse{
		AssignmentID: assignment.AssignmentID,
		PrincipalID:  assignment.PrincipalID,
		RoleID:       assignment.RoleID,
		RoleName:     assignment.RoleName,
		AssignedBy:   assignment.AssignedBy,
		AssignedAt:   assignment.AssignedAt,
		IsActive:     assignment.IsActive,
		RevokedAt:    assignment.RevokedAt,
	}
}

func mapVoter(voter entities.VoterIdentity) httptransport.VoterResponse {
	return httptransport.VoterResponse{
		VoterID:      voter.VoterID,
		Attributes:   voter.Attributes,
		RegisteredAt: voter.RegisteredAt,
		Verified:     voter.Verified,
		VerifiedBy:   voter.VerifiedBy,
		VerifiedAt:   voter.VerifiedAt,
	}
}
