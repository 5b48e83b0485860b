package service

import (
	"github.com/google/uuid"

	"github.com/target/veille-api/internal/core"
)

// UUIDIssuer issues random (v4) UUIDs in canonical hyphenated form, which are safe in file names
// and URL path segments.
type UUIDIssuer struct{}

var _ core.IDIssuer = UUIDIssuer{}

// NewID returns a new random identifier.
func (UUIDIssuer) NewID() string {
	return uuid.NewString()
}
