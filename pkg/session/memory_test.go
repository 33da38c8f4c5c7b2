package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Missing profile reads as nil, nil.
	sess, err := store.Get(ctx, "prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess != nil {
		t.Errorf("Get() = %v, want nil", sess)
	}

	in := New("prod", "https://superset.example.com", "admin", "tok", "", time.Hour)
	if err := store.Set(ctx, in); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	sess, err = store.Get(ctx, "prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess == nil {
		t.Fatal("Get() = nil after Set")
	}
	if sess.AccessToken != "tok" {
		t.Errorf("AccessToken = %q, want %q", sess.AccessToken, "tok")
	}

	// The returned session is a copy; mutating it must not leak back.
	sess.AccessToken = "mutated"
	again, err := store.Get(ctx, "prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.AccessToken != "tok" {
		t.Errorf("stored AccessToken = %q after caller mutation, want %q", again.AccessToken, "tok")
	}

	if err := store.Delete(ctx, "prod"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	sess, err = store.Get(ctx, "prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess != nil {
		t.Errorf("Get() after Delete = %v, want nil", sess)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	expired := New("stale", "https://superset.example.com", "admin", "tok", "", -time.Minute)
	if err := store.Set(ctx, expired); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	sess, err := store.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess != nil {
		t.Errorf("Get() on expired session = %v, want nil", sess)
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, New("live", "https://h", "u", "tok", "", time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, New("stale", "https://h", "u", "tok", "", -time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if len(store.sessions) != 1 {
		t.Errorf("len(sessions) after Cleanup = %d, want 1", len(store.sessions))
	}
	if _, ok := store.sessions["live"]; !ok {
		t.Error("Cleanup removed a live session")
	}
}
