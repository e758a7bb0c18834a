package entities

import "time"

// VoterIdentity is a registered voter. Attributes are opaque to the gate;
// verification is a decision made by an actor holding voter.verify.
type VoterIdentity struct {
	VoterID      string            `json:"voter_id"`
	Attributes   map[string]string `json:"attributes"`
	RegisteredAt time.Time         `json:"registered_at"`
	Verified     bool              `json:"verified"`
	VerifiedBy   string            `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time        `json:"verified_at,omitempty"`
}

func (v VoterIdentity) Clone() VoterIdentity {
	clone := v
	clone.Attributes = make(map[string]string, len(v.Attributes))
	for key, value := range v.Attributes {
		clone.Attributes[key] = value
	}
	if v.VerifiedAt != nil {
		at := *v.VerifiedAt
		clone.VerifiedAt = &at
	}
	return clone
}
