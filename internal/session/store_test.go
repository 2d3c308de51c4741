package session

import (
	"errors"
	"testing"
	"time"

	"github.com/authdeck/internal/domain"
)

func testSession(id string) *domain.Session {
	return &domain.Session{
		ID:           id,
		UserID:       "u-" + id,
		Email:        id + "@example.com",
		RefreshToken: "refresh-" + id,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestStoreCreateValidateRoundTrip(t *testing.T) {
	b := NewBroadcaster()
	store := NewStore("test-secret", time.Hour, b)

	cookie, err := store.Create(testSession("s1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec, err := store.Validate(cookie)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.SID != "s1" || rec.UserID != "u-s1" || rec.Email != "s1@example.com" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.RefreshToken != "refresh-s1" {
		t.Errorf("expected refresh token kept, got %q", rec.RefreshToken)
	}
}

func TestStoreValidateRejectsGarbageAndWrongSecret(t *testing.T) {
	b := NewBroadcaster()
	store := NewStore("test-secret", time.Hour, b)
	other := NewStore("other-secret", time.Hour, b)

	cookie, err := other.Create(testSession("s1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Validate("not.a.token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected token invalid error, got %v", err)
	}
	if _, err := store.Validate(cookie); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected token invalid error for wrong secret, got %v", err)
	}
}

func TestStoreDestroyPublishesSignedOut(t *testing.T) {
	b := NewBroadcaster()
	store := NewStore("test-secret", time.Hour, b)

	cookie, err := store.Create(testSession("s1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ch, cancel := b.Subscribe()
	defer cancel()

	store.Destroy("s1")

	select {
	case state := <-ch:
		if state.Authenticated {
			t.Error("expected signed-out state")
		}
	case <-time.After(time.Second):
		t.Fatal("no state published on destroy")
	}

	if _, err := store.Validate(cookie); !errors.Is(err, domain.ErrSessionExpired) {
		t.Errorf("expected session expired after destroy, got %v", err)
	}
}

func TestStoreSweepExpiresStaleSessions(t *testing.T) {
	b := NewBroadcaster()
	store := NewStore("test-secret", time.Hour, b)

	stale := testSession("stale")
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	if _, err := store.Create(stale); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(testSession("fresh")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ch, cancel := b.Subscribe()
	defer cancel()

	expired := store.Sweep()
	if len(expired) != 1 || expired[0].SID != "stale" {
		t.Errorf("expected the stale session swept, got %+v", expired)
	}
	if store.ActiveCount() != 1 {
		t.Errorf("expected 1 active session, got %d", store.ActiveCount())
	}

	select {
	case state := <-ch:
		if state.Authenticated {
			t.Error("expected signed-out state from sweep")
		}
	case <-time.After(time.Second):
		t.Fatal("no state published by sweep")
	}
}

func TestStoreCreatePublishesAuthenticated(t *testing.T) {
	b := NewBroadcaster()
	store := NewStore("test-secret", time.Hour, b)

	ch, cancel := b.Subscribe()
	defer cancel()

	if _, err := store.Create(testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case state := <-ch:
		if !state.Authenticated || state.Email != "s1@example.com" {
			t.Errorf("unexpected state %+v", state)
		}
	case <-time.After(time.Second):
		t.Fatal("no state published on create")
	}
}
