package services

import (
	"strings"

	domainerrors "agora/contexts/identity-access/access-gate/domain/errors"
)

const (
	MaxVoterAttributes   = 32
	MaxAttributeKeyLen   = 64
	MaxAttributeValueLen = 256
)

// NormalizeAttributes trims keys and rejects empty or oversized entries.
func NormalizeAttributes(attributes map[string]string) (map[string]string, error) {
	if len(attributes) > MaxVoterAttributes {
		return nil, domainerrors.ErrInvalidVoterAttributes
	}
	normalized := make(map[string]string, len(attributes))
	for key, value := range attributes {
		key = strings.TrimSpace(key)
		if key == "" || len(key) > MaxAttributeKeyLen || len(value) > MaxAttributeValueLen {
			return nil, domainerrors.ErrInvalidVoterAttributes
		}
		if _, exists := normalized[key]; exists {
			return nil, domainerrors.ErrInvalidVoterAttributes
		}
		normalized[key] = value
	}
	return normalized, nil
}
