package accessgate

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/identity-access/access-gate/application/commands"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	httptransport "agora/contexts/identity-access/access-gate/transport/http"
)

func seededModule(t *testing.T) Module {
	t.Helper()
	module := NewInMemoryModule(nil)
	if err := module.Handler.GrantRole.Seed(context.Background(), "admin-1", services.RoleAdmin); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}
	return module
}

func TestSeedIsIdempotent(t *testing.T) {
	module := seededModule(t)
	if err := module.Handler.GrantRole.Seed(context.Background(), "admin-1", services.RoleAdmin); err != nil {
		t.Fatalf("expected repeated seed to succeed, got %v", err)
	}
	roles, err := module.Handler.ListRolesHandler(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles.Roles) != 1 || roles.Roles[0].AssignedBy != commands.SystemActor {
		t.Fatalf("expected one system assignment, got %+v", roles.Roles)
	}
}

func TestGrantRoleRequiresGrantPermission(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()

	_, err := module.Handler.GrantRoleHandler(ctx, "nobody", httptransport.GrantRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	assignment, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
		Reason:      "public api",
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if !assignment.IsActive || assignment.AssignedBy != "admin-1" {
		t.Fatalf("unexpected assignment %+v", assignment)
	}

	_, err = module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
	})
	if !errors.Is(err, domainerrors.ErrRoleAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}

	_, err = module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      "auditor",
	})
	if !errors.Is(err, domainerrors.ErrRoleNotFound) {
		t.Fatalf("expected role not found, got %v", err)
	}
}

func TestCapabilitiesFollowGrantAndRevoke(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()
	capabilities := module.Handler.Capabilities

	allowed, err := capabilities.IsAuthorizedCaller(ctx, "svc-facade")
	if err != nil || allowed {
		t.Fatalf("expected caller to be unauthorized before grant, got %v %v", allowed, err)
	}
	if _, err := module.Handler.GrantRoleHandler(ctx, "admin-1", httptransport.GrantRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
	}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	// The grant invalidates the negative answer cached above.
	allowed, err = capabilities.IsAuthorizedCaller(ctx, "svc-facade")
	if err != nil || !allowed {
		t.Fatalf("expected caller to be authorized after grant, got %v %v", allowed, err)
	}
	admin, err := capabilities.IsAdmin(ctx, "svc-facade")
	if err != nil || admin {
		t.Fatalf("authorized caller must not be admin, got %v %v", admin, err)
	}

	revoked, err := module.Handler.RevokeRoleHandler(ctx, "admin-1", httptransport.RevokeRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
	})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.IsActive || revoked.RevokedAt == nil {
		t.Fatalf("expected inactive assignment, got %+v", revoked)
	}
	allowed, err = capabilities.IsAuthorizedCaller(ctx, "svc-facade")
	if err != nil || allowed {
		t.Fatalf("expected caller to be unauthorized after revoke, got %v %v", allowed, err)
	}

	_, err = module.Handler.RevokeRoleHandler(ctx, "admin-1", httptransport.RevokeRoleRequest{
		PrincipalID: "svc-facade",
		RoleID:      services.RoleAuthorizedCaller,
	})
	if !errors.Is(err, domainerrors.ErrRoleNotAssigned) {
		t.Fatalf("expected role not assigned, got %v", err)
	}
}

func TestVoterRegistrationAndVerification(t *testing.T) {
	module := seededModule(t)
	ctx := context.Background()
	capabilities := module.Handler.Capabilities

	voter, err := module.Handler.RegisterVoterHandler(ctx, " voter-1 ", httptransport.RegisterVoterRequest{
		Attributes: map[string]string{"region": "north"},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if voter.VoterID != "voter-1" || voter.Verified {
		t.Fatalf("unexpected voter %+v", voter)
	}
	if _, err := module.Handler.RegisterVoterHandler(ctx, "voter-1", httptransport.RegisterVoterRequest{}); !errors.Is(err, domainerrors.ErrVoterAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}

	verified, err := capabilities.IsVerified(ctx, "voter-1")
	if err != nil || verified {
		t.Fatalf("expected unverified voter, got %v %v", verified, err)
	}
	if _, err := module.Handler.VerifyVoterHandler(ctx, "voter-1", "voter-1"); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected self verification to be forbidden, got %v", err)
	}
	response, err := module.Handler.VerifyVoterHandler(ctx, "admin-1", "voter-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !response.Verified || response.VerifiedBy != "admin-1" || response.VerifiedAt == nil {
		t.Fatalf("unexpected verified voter %+v", response)
	}
	if _, err := module.Handler.VerifyVoterHandler(ctx, "admin-1", "voter-1"); !errors.Is(err, domainerrors.ErrVoterAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
	if _, err := module.Handler.VerifyVoterHandler(ctx, "admin-1", "ghost"); !errors.Is(err, domainerrors.ErrVoterNotFound) {
		t.Fatalf("expected voter not found, got %v", err)
	}

	verified, err = capabilities.IsVerified(ctx, "voter-1")
	if err != nil || !verified {
		t.Fatalf("expected verified voter, got %v %v", verified, err)
	}
	verified, err = capabilities.IsVerified(ctx, "ghost")
	if err != nil || verified {
		t.Fatalf("unknown voter must not be verified, got %v %v", verified, err)
	}
}

func TestRegisterVoterRejectsBadAttributes(t *testing.T) {
	module := seededModule(t)
	_, err := module.Handler.RegisterVoterHandler(context.Background(), "voter-2", httptransport.RegisterVoterRequest{
		Attributes: map[string]string{"  ": "blank key"},
	})
	if !errors.Is(err, domainerrors.ErrInvalidVoterAttributes) {
		t.Fatalf("expected invalid attributes, got %v", err)
	}
}
