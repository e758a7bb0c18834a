package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"agora/contexts/identity-access/access-gate/domain/entities"
	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/contexts/identity-access/access-gate/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing repository and cache ports.
type Store struct {
	mu sync.RWMutex

	roles       map[string]entities.Role
	assignments map[string]entities.RoleAssignment
	voters      map[string]entities.VoterIdentity
	cache       map[string]cacheEntry
}

type cacheEntry struct {
	Permissions []string
	ExpiresAt   time.Time
}

// NewStore builds a store seeded with the baseline role catalog.
func NewStore() *Store {
	roles := make(map[string]entities.Role)
	for _, role := range services.BaselineRoles() {
		roles[role.RoleID] = role
	}
	return &Store{
		roles:       roles,
		assignments: make(map[string]entities.RoleAssignment),
		voters:      make(map[string]entities.VoterIdentity),
		cache:       make(map[string]cacheEntry),
	}
}

func (s *Store) ListEffectivePermissions(_ context.Context, principalID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permissions := make(map[string]struct{})
	for _, assignment := range s.assignments {
		if assignment.PrincipalID != principalID || !assignment.IsActive {
			continue
		}
		role, ok := s.roles[assignment.RoleID]
		if !ok {
			continue
		}
		for _, permission := range role.Permissions {
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

func (s *Store) ListPrincipalRoles(_ context.Context, principalID string) ([]entities.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.RoleAssignment, 0)
	for _, assignment := range s.assignments {
		if assignment.PrincipalID == principalID {
			items = append(items, assignment)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AssignedAt.Equal(items[j].AssignedAt) {
			return items[i].AssignmentID < items[j].AssignmentID
		}
		return items[i].AssignedAt.After(items[j].AssignedAt)
	})
	return items, nil
}

func (s *Store) GrantRole(_ context.Context, input ports.GrantRoleInput) (entities.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[input.RoleID]
	if !ok {
		return entities.RoleAssignment{}, domainerrors.ErrRoleNotFound
	}
	for _, assignment := range s.assignments {
		if assignment.PrincipalID == input.PrincipalID && assignment.RoleID == input.RoleID && assignment.IsActive {
			return entities.RoleAssignment{}, domainerrors.ErrRoleAlreadyAssigned
		}
	}

	assignment := entities.RoleAssignment{
		AssignmentID: input.AssignmentID,
		PrincipalID:  input.PrincipalID,
		RoleID:       input.RoleID,
		RoleName:     role.RoleName,
		AssignedBy:   input.ActorID,
		Reason:       input.Reason,
		AssignedAt:   input.AssignedAt.UTC(),
		IsActive:     true,
	}
	s.assignments[assignment.AssignmentID] = assignment
	return assignment, nil
}

func (s *Store) RevokeRole(_ context.Context, input ports.RevokeRoleInput) (entities.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, assignment := range s.assignments {
		if assignment.PrincipalID == input.PrincipalID && assignment.RoleID == input.RoleID && assignment.IsActive {
			assignment.IsActive = false
			revokedAt := input.RevokedAt.UTC()
			assignment.RevokedAt = &revokedAt
			s.assignments[id] = assignment
			return assignment, nil
		}
	}
	return entities.RoleAssignment{}, domainerrors.ErrRoleNotAssigned
}

func (s *Store) RegisterVoter(_ context.Context, voter entities.VoterIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.voters[voter.VoterID]; exists {
		return domainerrors.ErrVoterAlreadyRegistered
	}
	s.voters[voter.VoterID] = voter.Clone()
	return nil
}

func (s *Store) VerifyVoter(_ context.Context, input ports.VerifyVoterInput) (entities.VoterIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voter, ok := s.voters[input.VoterID]
	if !ok {
		return entities.VoterIdentity{}, domainerrors.ErrVoterNotFound
	}
	if voter.Verified {
		return entities.VoterIdentity{}, domainerrors.ErrVoterAlreadyVerified
	}
	verifiedAt := input.VerifiedAt.UTC()
	voter.Verified = true
	voter.VerifiedBy = input.ActorID
	voter.VerifiedAt = &verifiedAt
	s.voters[input.VoterID] = voter
	return voter.Clone(), nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.VoterIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voter, ok := s.voters[voterID]
	if !ok {
		return entities.VoterIdentity{}, domainerrors.ErrVoterNotFound
	}
	return voter.Clone(), nil
}

func (s *Store) Get(_ context.Context, principalID string, now time.Time) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[principalID]
	if !ok {
		return nil, false, nil
	}
	if !entry.ExpiresAt.After(now) {
		delete(s.cache, principalID)
		return nil, false, nil
	}
	return append([]string(nil), entry.Permissions...), true, nil
}

func (s *Store) Set(_ context.Context, principalID string, permissions []string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[principalID] = cacheEntry{
		Permissions: append([]string(nil), permissions...),
		ExpiresAt:   expiresAt.UTC(),
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, principalID)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.Repository      = (*Store)(nil)
	_ ports.PermissionCache = (*Store)(nil)
	_ ports.Clock           = (*Store)(nil)
	_ ports.IDGenerator     = (*Store)(nil)
)
