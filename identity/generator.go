package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces new session identifiers.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) { return f() }

// UUIDGenerator generates random (version 4) UUIDs from crypto/rand.
type UUIDGenerator struct{}

// Generate returns a new random UUID.
func (UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id.String(), nil
}
