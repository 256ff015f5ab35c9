// Package entity models the closed set of business entities media can be
// attached to, and resolves their public profile IDs.
package entity

import (
	"context"
	"fmt"
)

// Kind enumerates the entity tables that can own media. Adding a kind is a
// compile-time change here plus one lookup registration at startup.
type Kind string

const (
	KindUser      Kind = "user"
	KindBuilder   Kind = "builder"
	KindCommunity Kind = "community"
	KindProperty  Kind = "property"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindBuilder, KindCommunity, KindProperty:
		return true
	}
	return false
}

// Ref identifies one owning entity: a kind plus its opaque numeric ID.
type Ref struct {
	Kind Kind
	ID   int64
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// ProfileLookup resolves the public business ID (e.g. USR-1712345678-k3x9qa)
// of one entity kind. One implementation is registered per kind.
type ProfileLookup func(ctx context.Context, id int64) (string, error)

// Resolver maps entity refs to profile IDs through per-kind lookups
// registered at process start.
type Resolver struct {
	lookups map[Kind]ProfileLookup
}

func NewResolver() *Resolver {
	return &Resolver{lookups: make(map[Kind]ProfileLookup)}
}

// Register installs the lookup for one kind. Registering a kind twice is a
// programming error and panics during startup wiring.
func (r *Resolver) Register(kind Kind, lookup ProfileLookup) {
	if !kind.Valid() {
		panic(fmt.Sprintf("entity: register unknown kind %q", kind))
	}
	if _, dup := r.lookups[kind]; dup {
		panic(fmt.Sprintf("entity: kind %q registered twice", kind))
	}
	r.lookups[kind] = lookup
}

// ProfileID resolves the public business ID of the referenced entity.
func (r *Resolver) ProfileID(ctx context.Context, ref Ref) (string, error) {
	lookup, ok := r.lookups[ref.Kind]
	if !ok {
		return "", fmt.Errorf("no profile lookup registered for entity kind %q", ref.Kind)
	}
	profileID, err := lookup(ctx, ref.ID)
	if err != nil {
		return "", fmt.Errorf("resolve profile id for %s: %w", ref, err)
	}
	return profileID, nil
}
