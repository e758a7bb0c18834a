package errors

import "errors"

// Kind classifies ledger failures. Every failure aborts the operation that
// raised it without touching ledger state.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInvalidState  Kind = "invalid_state"
	KindValidation    Kind = "validation"
	KindDuplicate     Kind = "duplicate"
	KindNoOp          Kind = "no_op"
	KindInternal      Kind = "internal"
)

// Error is a ledger failure tagged with its kind. A concrete error matches
// the sentinel of its kind through errors.Is, so callers may test either
// errors.Is(err, ErrProposalNotFound) or errors.Is(err, ErrNotFound).
type Error struct {
	kind  Kind
	msg   string
	class bool
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.class {
		return false
	}
	return t.kind == e.kind
}

func newClass(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg, class: true}
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

var (
	ErrAuthorization = newClass(KindAuthorization, "not authorized")
	ErrNotFound      = newClass(KindNotFound, "not found")
	ErrInvalidState  = newClass(KindInvalidState, "invalid state")
	ErrValidation    = newClass(KindValidation, "validation failed")
	ErrDuplicate     = newClass(KindDuplicate, "duplicate")
	ErrNoOp          = newClass(KindNoOp, "no-op")
	ErrInternal      = newClass(KindInternal, "internal ledger error")
)

var (
	ErrCallerNotAuthorized = newError(KindAuthorization, "caller is not authorized")
	ErrVoterNotVerified    = newError(KindAuthorization, "voter is not verified")
	ErrNotProposalOwner    = newError(KindAuthorization, "requester does not own the proposal")

	ErrProposalNotFound      = newError(KindNotFound, "proposal not found")
	ErrParticipationNotFound = newError(KindNotFound, "participation record not found")
	ErrCreationNotFound      = newError(KindNotFound, "creation record not found")

	ErrProposalNotActive       = newError(KindInvalidState, "proposal is not active")
	ErrVoteImmutable           = newError(KindInvalidState, "votes on this proposal cannot be changed")
	ErrProposalHasParticipants = newError(KindInvalidState, "proposal has participants")
	ErrResultsNotFinal         = newError(KindInvalidState, "proposal results are not final")

	ErrInvalidPrincipal    = newError(KindValidation, "principal id is required")
	ErrInvalidProposalID   = newError(KindValidation, "invalid proposal id")
	ErrInvalidTitle        = newError(KindValidation, "invalid proposal title")
	ErrInvalidOptions      = newError(KindValidation, "invalid proposal options")
	ErrDuplicateOption     = newError(KindValidation, "duplicate proposal option")
	ErrInvalidMutability   = newError(KindValidation, "invalid vote mutability")
	ErrInvalidVotingWindow = newError(KindValidation, "invalid voting window")
	ErrStartInPast         = newError(KindValidation, "voting start is in the past")
	ErrUnknownOption       = newError(KindValidation, "option does not exist on proposal")

	ErrAlreadyVoted    = newError(KindDuplicate, "voter already participated")
	ErrDuplicateRecord = newError(KindDuplicate, "record already present")

	ErrIdenticalOption = newError(KindNoOp, "new option equals the current selection")

	ErrTallyUnderflow   = newError(KindInternal, "vote count underflow")
	ErrLedgerCorrupted  = newError(KindInternal, "ledger state is inconsistent")
	ErrJournalConflict  = newError(KindInternal, "journal event conflict")
	ErrUnknownEventType = newError(KindInternal, "unknown journal event type")
)

// KindOf returns the kind carried by err, KindInternal for foreign errors and
// the empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr.kind
	}
	return KindInternal
}
