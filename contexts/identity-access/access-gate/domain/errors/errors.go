package errors

import "errors"

var (
	ErrInvalidPermission      = errors.New("invalid permission")
	ErrInvalidPrincipalID     = errors.New("invalid principal id")
	ErrInvalidRoleID          = errors.New("invalid role id")
	ErrInvalidActorID         = errors.New("invalid actor id")
	ErrRoleNotFound           = errors.New("role not found")
	ErrRoleAlreadyAssigned    = errors.New("role already assigned")
	ErrRoleNotAssigned        = errors.New("role not assigned")
	ErrVoterNotFound          = errors.New("voter not found")
	ErrVoterAlreadyRegistered = errors.New("voter already registered")
	ErrVoterAlreadyVerified   = errors.New("voter already verified")
	ErrInvalidVoterAttributes = errors.New("invalid voter attributes")
	ErrForbidden              = errors.New("forbidden")
)
