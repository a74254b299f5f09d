package tables

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// IDProvider issues identifiers for new line items.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// GenerateTableID produces a table identifier from the current time plus a
// random suffix, retrying until it does not collide with an existing id.
// The exists callback reports whether an id is already taken.
func GenerateTableID(clock func() time.Time, exists func(string) bool) string {
	if clock == nil {
		clock = time.Now
	}
	candidate := formatTableID(clock())
	for exists != nil && exists(candidate) {
		candidate = formatTableID(clock())
	}
	return candidate
}

func formatTableID(at time.Time) string {
	return fmt.Sprintf("T%d%03d", at.UnixMilli(), rand.Intn(1000))
}
