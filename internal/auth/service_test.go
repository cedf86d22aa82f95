package auth

import (
	"testing"
	"time"

	"github.com/acepass/acepass/internal/admin"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	account := admin.Admin{ID: "admin-1", Username: "root"}

	token, err := svc.Issue(account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.ExpiresIn != 60 {
		t.Fatalf("expected 60s expiry, got %d", token.ExpiresIn)
	}

	sub, err := svc.Verify(token.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "admin-1" {
		t.Fatalf("expected subject admin-1, got %q", sub)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	token, err := svc.Issue(admin.Admin{ID: "admin-1", Username: "root"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Verify(token.AccessToken + "x"); err == nil {
		t.Fatalf("expected signature mismatch")
	}

	other := NewService("other-secret", time.Minute)
	if _, err := other.Verify(token.AccessToken); err == nil {
		t.Fatalf("expected cross-secret verification to fail")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", time.Minute)

	expired, err := SignHS256(map[string]any{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().UTC().Add(-time.Minute).Unix(),
	}, []byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(expired); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}
