package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock and UUIDGenerator back the ledger when it runs against a
// database; the in-memory store provides its own.
type (
	SystemClock   struct{}
	UUIDGenerator struct{}
)

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewID returns a random UUID used as a journal event id.
func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
