package identity

import (
	"context"
	"errors"
	"fmt"
)

// Checker reports whether a session record exists in the backend.
type Checker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Resolver decides whether an incoming session id can be trusted and tracks ids minted
// by the current execution context. It is not safe for concurrent use.
type Resolver struct {
	generator Generator
	minted    map[string]struct{}
}

// NewResolver creates a resolver.
func NewResolver(generator Generator) *Resolver {
	if generator == nil {
		generator = UUIDGenerator{}
	}
	return &Resolver{generator: generator, minted: map[string]struct{}{}}
}

// IsNewlyMinted reports whether id was minted by this resolver.
func (r *Resolver) IsNewlyMinted(id string) bool {
	_, ok := r.minted[id]
	return ok
}

// MustRegenerate reports whether id came from outside and has no record in the backend,
// either because the record expired before the client token or because the id was forged.
func (r *Resolver) MustRegenerate(ctx context.Context, checker Checker, id string) (bool, error) {
	if r.IsNewlyMinted(id) {
		return false, nil
	}
	if id == "" {
		return true, nil
	}
	exists, err := checker.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check session %v: %w", id, err)
	}
	return !exists, nil
}

// Mint generates a new id and records it as newly minted.
func (r *Resolver) Mint() (string, error) {
	id, err := r.generator.Generate()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("generated empty session id")
	}
	r.minted[id] = struct{}{}
	return id, nil
}

// Minted returns number of ids minted so far.
func (r *Resolver) Minted() int {
	return len(r.minted)
}
