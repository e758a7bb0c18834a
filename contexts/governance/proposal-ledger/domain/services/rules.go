package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"agora/contexts/governance/proposal-ledger/domain/entities"
	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
)

const (
	MinTitleLength = 3
	MaxTitleLength = 200
	MinOptions     = 2
	MaxOptions     = 10

	DefaultMinVotingWindow = time.Hour
)

// ValidateTitle checks the title length in characters and rejects titles made
// only of whitespace.
func ValidateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length < MinTitleLength || length > MaxTitleLength {
		return fmt.Errorf("%w: length %d outside %d..%d", domainerrors.ErrInvalidTitle, length, MinTitleLength, MaxTitleLength)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is blank", domainerrors.ErrInvalidTitle)
	}
	return nil
}

// ValidateOptions enforces the option count bounds, non-blank values and
// uniqueness. Options are compared by exact value.
func ValidateOptions(options []string) error {
	if len(options) < MinOptions || len(options) > MaxOptions {
		return fmt.Errorf("%w: %d options outside %d..%d", domainerrors.ErrInvalidOptions, len(options), MinOptions, MaxOptions)
	}
	seen := make(map[string]struct{}, len(options))
	for i, option := range options {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("%w: option %d is blank", domainerrors.ErrInvalidOptions, i)
		}
		if _, ok := seen[option]; ok {
			return fmt.Errorf("%w: %q", domainerrors.ErrDuplicateOption, option)
		}
		seen[option] = struct{}{}
	}
	return nil
}

// ValidateVotingWindow requires a start that is not strictly before now and a
// window of at least minWindow. A non-positive minWindow falls back to
// DefaultMinVotingWindow.
func ValidateVotingWindow(startsAt time.Time, endsAt time.Time, now time.Time, minWindow time.Duration) error {
	if minWindow <= 0 {
		minWindow = DefaultMinVotingWindow
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		return fmt.Errorf("%w: start and end are required", domainerrors.ErrInvalidVotingWindow)
	}
	if startsAt.Before(now) {
		return domainerrors.ErrStartInPast
	}
	if endsAt.Sub(startsAt) < minWindow {
		return fmt.Errorf("%w: window %s shorter than %s", domainerrors.ErrInvalidVotingWindow, endsAt.Sub(startsAt), minWindow)
	}
	return nil
}

func ValidateMutability(mutability entities.VoteMutability) error {
	if !mutability.Valid() {
		return fmt.Errorf("%w: %q", domainerrors.ErrInvalidMutability, mutability)
	}
	return nil
}

func ValidatePrincipal(principalID string) error {
	if strings.TrimSpace(principalID) == "" {
		return domainerrors.ErrInvalidPrincipal
	}
	return nil
}
