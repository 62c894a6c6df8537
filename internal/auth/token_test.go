package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewTokenService("test-secret", WithIssuer("test-issuer"), WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, expiresAt, err := svc.Issue("acc-42", RoleAdministrator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.AccountID != "acc-42" {
		t.Fatalf("unexpected subject: %s", id.AccountID)
	}
	if id.Role != RoleAdministrator {
		t.Fatalf("unexpected role: %s", id.Role)
	}
}

func TestVerifyMissingToken(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	if _, err := svc.Verify(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := svc.Verify("   "); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestVerifyForeignSignature(t *testing.T) {
	issuing, _ := NewTokenService("secret-a")
	verifying, _ := NewTokenService("secret-b")

	token, _, err := issuing.Issue("acc-1", RoleSubmitter)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifying.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	svc, err := NewTokenService("test-secret", WithTTL(time.Minute), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := svc.Issue("acc-9", RoleDepartment)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issued.Add(30 * time.Second)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token still valid, got %v", err)
	}

	clock = issued.Add(2 * time.Minute)
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	svc, _ := NewTokenService("test-secret")
	if _, err := svc.Verify("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	actor, err := DepartmentActor("acc-7", "Housekeeping")
	if err != nil {
		t.Fatalf("DepartmentActor: %v", err)
	}
	ctx := ContextWithActor(context.Background(), actor)

	got, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if got.AccountID != "acc-7" {
		t.Fatalf("unexpected account id: %s", got.AccountID)
	}
	dept, ok := got.Department()
	if !ok || dept != "Housekeeping" {
		t.Fatalf("unexpected department: %q ok=%v", dept, ok)
	}

	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("unexpected actor in empty context")
	}
}
