package admin

import (
	"context"
	"errors"
	"testing"
)

func TestSeedAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0)
	ctx := context.Background()

	if err := svc.Seed(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice is a no-op.
	if err := svc.Seed(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	account, err := svc.Authenticate(ctx, "admin", "changeme123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !account.Bootstrap {
		t.Fatalf("seeded account must be marked bootstrap")
	}

	if _, err := svc.Authenticate(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost", "changeme123"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for unknown user, got %v", err)
	}
}

func TestBootstrapUseBudget(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 2)
	ctx := context.Background()

	if err := svc.Seed(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Authenticate(ctx, "admin", "changeme123"); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if _, err := svc.Authenticate(ctx, "admin", "changeme123"); !errors.Is(err, ErrBootstrapExhausted) {
		t.Fatalf("expected ErrBootstrapExhausted, got %v", err)
	}
}

func TestPasswordRotationLiftsBudget(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 1)
	ctx := context.Background()

	if err := svc.Seed(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	account, err := svc.Authenticate(ctx, "admin", "changeme123")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	if err := svc.ChangePassword(ctx, account.ID, "changeme123", "s3cure-pass"); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Budget long spent, but the rotation lifts it.
	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate(ctx, "admin", "s3cure-pass"); err != nil {
			t.Fatalf("post-rotation login %d: %v", i, err)
		}
	}

	if _, err := svc.Authenticate(ctx, "admin", "changeme123"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0)
	ctx := context.Background()

	if err := svc.Seed(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	account, _ := svc.Authenticate(ctx, "admin", "changeme123")

	if err := svc.ChangePassword(ctx, account.ID, "changeme123", "short"); err == nil {
		t.Fatalf("expected length validation error")
	}
	if err := svc.ChangePassword(ctx, account.ID, "wrong", "long-enough-pass"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for wrong current password, got %v", err)
	}
}
