package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClaimUsername(t *testing.T) {
	store := newMemStore()
	a := newTestApp(store, at(2026, time.October, 12, 7, 0))

	u, token, err := a.ClaimUsername(context.Background(), ClaimInput{Username: "Jane", Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("ClaimUsername: %v", err)
	}
	if u.Username != "jane" || u.ID == "" {
		t.Errorf("unexpected user %+v", u)
	}
	if sub, err := a.Tokens.Verify(token, audienceSession); err != nil || sub != u.ID {
		t.Errorf("session token: sub=%q err=%v", sub, err)
	}

	_, _, err = a.ClaimUsername(context.Background(), ClaimInput{Username: "jane", Name: "Other Jane"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestClaimUsernameWithoutSigningKeyStoresNothing(t *testing.T) {
	store := newMemStore()
	a := newTestApp(store, at(2026, time.October, 12, 7, 0))
	a.Tokens = &TokenIssuer{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := a.ClaimUsername(ctx, ClaimInput{Username: "jane", Name: "Jane Doe"})
		if !errors.Is(err, errSigningDisabled) {
			t.Fatalf("attempt %d: expected signing error, got %v", i+1, err)
		}
	}

	var notFound *NotFoundError
	if _, err := store.GetUserByUsername(ctx, "jane"); !errors.As(err, &notFound) {
		t.Fatalf("user stored despite failed claim: %v", err)
	}
}
