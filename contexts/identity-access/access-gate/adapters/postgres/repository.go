package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"agora/contexts/identity-access/access-gate/domain/entities"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists roles, role assignments and voter identities.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the access tables and upserts the baseline role catalog.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&roleModel{}, &roleAssignmentModel{}, &voterModel{}); err != nil {
		return r.logError("access_repo_migrate_failed", err)
	}
	for _, role := range services.BaselineRoles() {
		permissions, err := json.Marshal(role.Permissions)
		if err != nil {
			return err
		}
		row := roleModel{
			RoleID:      role.RoleID,
			RoleName:    role.RoleName,
			Permissions: permissions,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role_name", "permissions"}),
		}).Create(&row).Error; err != nil {
			return r.logError("access_repo_seed_roles_failed", err, "role_id", role.RoleID)
		}
	}
	return nil
}

func (r *Repository) ListEffectivePermissions(ctx context.Context, principalID string) ([]string, error) {
	var roles []roleModel
	err := r.db.WithContext(ctx).
		Table("access_roles").
		Select("access_roles.role_id, access_roles.role_name, access_roles.permissions").
		Joins("JOIN access_role_assignments a ON a.role_id = access_roles.role_id").
		Where("a.principal_id = ? AND a.is_active = ?", principalID, true).
		Find(&roles).Error
	if err != nil {
		return nil, r.logError("access_repo_list_permissions_failed", err, "principal_id", principalID)
	}

	permissions := make(map[string]struct{})
	for _, role := range roles {
		var items []string
		if err := json.Unmarshal(role.Permissions, &items); err != nil {
			return nil, r.logError("access_repo_decode_permissions_failed", err, "role_id", role.RoleID)
		}
		for _, permission := range items {
			permissions[permission] = struct{}{}
		}
	}
	items := make([]string, 0, len(permissions))
	for permission := range permissions {
		items = append(items, permission)
	}
	sort.Strings(items)
	return items, nil
}

func (r *Repository) ListPrincipalRoles(ctx context.Context, principalID string) ([]entities.RoleAssignment, error) {
	var rows []roleAssignmentModel
	err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Order("assigned_at DESC, assignment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("access_repo_list_roles_failed", err, "principal_id", principalID)
	}
	items := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GrantRole(ctx context.Context, input ports.GrantRoleInput) (entities.RoleAssignment, error) {
	var assignment entities.RoleAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role roleModel
		if err := tx.Where("role_id = ?", input.RoleID).Take(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRoleNotFound
			}
			return err
		}
		var active int64
		if err := tx.Model(&roleAssignmentModel{}).
			Where("principal_id = ? AND role_id = ? AND is_active = ?", input.PrincipalID, input.RoleID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domainerrors.ErrRoleAlreadyAssigned
		}
		row := roleAssignmentModel{
			AssignmentID: input.AssignmentID,
			PrincipalID:  input.PrincipalID,
			RoleID:       input.RoleID,
			RoleName:     role.RoleName,
			AssignedBy:   input.ActorID,
			Reason:       input.Reason,
			AssignedAt:   input.AssignedAt.UTC(),
			IsActive:     true,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRoleAlreadyAssigned
			}
			return err
		}
		assignment = row.toEntity()
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrRoleNotFound) || errors.Is(err, domainerrors.ErrRoleAlreadyAssigned) {
			return entities.RoleAssignment{}, err
		}
		return entities.RoleAssignment{}, r.logError("access_repo_grant_role_failed", err,
			"principal_id", input.PrincipalID,
			"role_id", input.RoleID,
		)
	}
	return assignment, nil
}

func (r *Repository) RevokeRole(ctx context.Context, input ports.RevokeRoleInput) (entities.RoleAssignment, error) {
	var assignment entities.RoleAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row roleAssignmentModel
		err := tx.Where("principal_id = ? AND role_id = ? AND is_active = ?", input.PrincipalID, input.RoleID, true).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrRoleNotAssigned
		}
		if err != nil {
			return err
		}
		revokedAt := input.RevokedAt.UTC()
		if err := tx.Model(&roleAssignmentModel{}).
			Where("assignment_id = ?", row.AssignmentID).
			Updates(map[string]any{"is_active": false, "revoked_at": revokedAt}).Error; err != nil {
			return err
		}
		row.IsActive = false
		row.RevokedAt = &revokedAt
		assignment = row.toEntity()
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrRoleNotAssigned) {
			return entities.RoleAssignment{}, err
		}
		return entities.RoleAssignment{}, r.logError("access_repo_revoke_role_failed", err,
			"principal_id", input.PrincipalID,
			"role_id", input.RoleID,
		)
	}
	return assignment, nil
}

func (r *Repository) RegisterVoter(ctx context.Context, voter entities.VoterIdentity) error {
	attributes, err := json.Marshal(voter.Attributes)
	if err != nil {
		return err
	}
	row := voterModel{
		VoterID:      voter.VoterID,
		Attributes:   attributes,
		RegisteredAt: voter.RegisteredAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return r.logError("access_repo_register_voter_failed", result.Error, "voter_id", voter.VoterID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterAlreadyRegistered
	}
	return nil
}

func (r *Repository) VerifyVoter(ctx context.Context, input ports.VerifyVoterInput) (entities.VoterIdentity, error) {
	var voter entities.VoterIdentity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voterModel
		if err := tx.Where("voter_id = ?", input.VoterID).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return err
		}
		if row.Verified {
			return domainerrors.ErrVoterAlreadyVerified
		}
		verifiedAt := input.VerifiedAt.UTC()
		if err := tx.Model(&voterModel{}).
			Where("voter_id = ?", input.VoterID).
			Updates(map[string]any{
				"verified":    true,
				"verified_by": input.ActorID,
				"verified_at": verifiedAt,
			}).Error; err != nil {
			return err
		}
		row.Verified = true
		row.VerifiedBy = input.ActorID
		row.VerifiedAt = &verifiedAt
		decoded, err := row.toEntity()
		if err != nil {
			return err
		}
		voter = decoded
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoterNotFound) || errors.Is(err, domainerrors.ErrVoterAlreadyVerified) {
			return entities.VoterIdentity{}, err
		}
		return entities.VoterIdentity{}, r.logError("access_repo_verify_voter_failed", err, "voter_id", input.VoterID)
	}
	return voter, nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.VoterIdentity, error) {
	var row voterModel
	err := r.db.WithContext(ctx).Where("voter_id = ?", voterID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.VoterIdentity{}, domainerrors.ErrVoterNotFound
	}
	if err != nil {
		return entities.VoterIdentity{}, r.logError("access_repo_get_voter_failed", err, "voter_id", voterID)
	}
	return row.toEntity()
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/access-gate",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("access repository operation failed", fields...)
	return err
}

type roleModel struct {
	RoleID      string `gorm:"column:role_id;primaryKey"`
	RoleName    string `gorm:"column:role_name"`
	Permissions []byte `gorm:"column:permissions"`
}

func (roleModel) TableName() string {
	return "access_roles"
}

type roleAssignmentModel struct {
	AssignmentID string     `gorm:"column:assignment_id;primaryKey"`
	PrincipalID  string     `gorm:"column:principal_id;index"`
	RoleID       string     `gorm:"column:role_id"`
	RoleName     string     `gorm:"column:role_name"`
	AssignedBy   string     `gorm:"column:assigned_by"`
	Reason       string     `gorm:"column:reason"`
	AssignedAt   time.Time  `gorm:"column:assigned_at"`
	IsActive     bool       `gorm:"column:is_active"`
	RevokedAt    *time.Time `gorm:"column:revoked_at"`
}

func (roleAssignmentModel) TableName() string {
	return "access_role_assignments"
}

func (m roleAssignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		AssignmentID: m.AssignmentID,
		PrincipalID:  m.PrincipalID,
		RoleID:       m.RoleID,
		RoleName:     m.RoleName,
		AssignedBy:   m.AssignedBy,
		Reason:       m.Reason,
		AssignedAt:   m.AssignedAt.UTC(),
		IsActive:     m.IsActive,
		RevokedAt:    m.RevokedAt,
	}
}

type voterModel struct {
	VoterID      string     `gorm:"column:voter_id;primaryKey"`
	Attributes   []byte     `gorm:"column:attributes"`
	RegisteredAt time.Time  `gorm:"column:registered_at"`
	Verified     bool       `gorm:"column:verified"`
	VerifiedBy   string     `gorm:"column:verified_by"`
	VerifiedAt   *time.Time `gorm:"column:verified_at"`
}

func (voterModel) TableName() string {
	return "access_voters"
}

func (m voterModel) toEntity() (entities.VoterIdentity, error) {
	voter := entities.VoterIdentity{
		VoterID:      m.VoterID,
		Attributes:   map[string]string{},
		RegisteredAt: m.RegisteredAt.UTC(),
		Verified:     m.Verified,
		VerifiedBy:   m.VerifiedBy,
		VerifiedAt:   m.VerifiedAt,
	}
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &voter.Attributes); err != nil {
			return entities.VoterIdentity{}, err
		}
	}
	if voter.Attributes == nil {
		voter.Attributes = map[string]string{}
	}
	return voter, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
