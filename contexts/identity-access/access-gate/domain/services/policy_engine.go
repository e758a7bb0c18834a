package services

import "agora/contexts/identity-access/access-gate/domain/entities"

const (
	RoleAdmin            = "admin"
	RoleAuthorizedCaller = "authorized_caller"

	PermissionGrantRole  = "access.grant_role"
	PermissionRevokeRole = "access.revoke_role"
	PermissionVerify     = "voter.verify"
	PermissionAdminister = "ledger.administer"
	PermissionInvoke     = "ledger.invoke"
)

// BaselineRoles is the role catalog every store starts with.
func BaselineRoles() []entities.Role {
	return []entities.Role{
		{
			RoleID:   RoleAdmin,
			RoleName: RoleAdmin,
			Permissions: []string{
				PermissionGrantRole,
				PermissionRevokeRole,
				PermissionVerify,
				PermissionAdminister,
			},
		},
		{
			RoleID:      RoleAuthorizedCaller,
			RoleName:    RoleAuthorizedCaller,
			Permissions: []string{PermissionInvoke},
		},
	}
}

// PolicyEngine evaluates whether a role grants a permission.
func PolicyEngine(role entities.Role, permission string) bool {
	return GrantsPermission(role.Permissions, permission)
}

func GrantsPermission(permissions []string, permission string) bool {
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
