package entity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/propside/media-service/internal/domain/entity"
)

func staticLookup(profileID string) entity.ProfileLookup {
	return func(ctx context.Context, id int64) (string, error) {
		return profileID, nil
	}
}

func TestKind_Valid(t *testing.T) {
	for _, kind := range []entity.Kind{entity.KindUser, entity.KindBuilder, entity.KindCommunity, entity.KindProperty} {
		if !kind.Valid() {
			t.Errorf("Kind(%q).Valid() = false, want true", kind)
		}
	}
	if entity.Kind("listing").Valid() {
		t.Error(`Kind("listing").Valid() = true, want false`)
	}
}

func TestResolver_ProfileID(t *testing.T) {
	resolver := entity.NewResolver()
	resolver.Register(entity.KindUser, staticLookup("USR-1712000000-k3x9qa"))

	got, err := resolver.ProfileID(context.Background(), entity.Ref{Kind: entity.KindUser, ID: 42})
	if err != nil {
		t.Fatalf("ProfileID() error = %v", err)
	}
	if got != "USR-1712000000-k3x9qa" {
		t.Errorf("ProfileID() = %q", got)
	}
}

func TestResolver_UnregisteredKind(t *testing.T) {
	resolver := entity.NewResolver()
	if _, err := resolver.ProfileID(context.Background(), entity.Ref{Kind: entity.KindBuilder, ID: 1}); err == nil {
		t.Error("ProfileID() for unregistered kind: want error")
	}
}

func TestResolver_LookupErrorWrapped(t *testing.T) {
	missing := errors.New("row not found")
	resolver := entity.NewResolver()
	resolver.Register(entity.KindProperty, func(ctx context.Context, id int64) (string, error) {
		return "", missing
	})

	_, err := resolver.ProfileID(context.Background(), entity.Ref{Kind: entity.KindProperty, ID: 7})
	if !errors.Is(err, missing) {
		t.Errorf("ProfileID() error = %v, want wrapped %v", err, missing)
	}
}

func TestResolver_RegisterPanics(t *testing.T) {
	t.Run("duplicate kind", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on duplicate registration")
			}
		}()
		resolver := entity.NewResolver()
		resolver.Register(entity.KindUser, staticLookup("a"))
		resolver.Register(entity.KindUser, staticLookup("b"))
	})

	t.Run("unknown kind", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on unknown kind")
			}
		}()
		resolver := entity.NewResolver()
		resolver.Register(entity.Kind("listing"), staticLookup("a"))
	})
}
