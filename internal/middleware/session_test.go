package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/credential"
)

func setupGateApp(t *testing.T) (*fiber.App, credential.Credential) {
	t.Helper()
	repo := credential.NewMemoryRepository()
	svc := credential.NewService(repo, nil, 0)

	cred, err := svc.Generate(context.Background(), credential.GenerateInput{Origin: credential.OriginAdminManual})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), cred.Code, "fp-1", true); err != nil {
		t.Fatalf("bind: %v", err)
	}

	app := fiber.New()
	app.Use(SessionGate(svc))
	app.Get("/protected", func(c *fiber.Ctx) error {
		id, _ := c.Locals(CredentialIDKey).(string)
		return c.JSON(fiber.Map{"credential_id": id})
	})
	return app, cred
}

func gateRequest(t *testing.T, app *fiber.App, code, fingerprint string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	if code != "" {
		req.Header.Set(HeaderAccessCode, code)
	}
	if fingerprint != "" {
		req.Header.Set(HeaderDeviceFingerprint, fingerprint)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	return resp.StatusCode, decoded
}

func TestSessionGateAllowsBoundCredential(t *testing.T) {
	app, cred := setupGateApp(t)

	status, body := gateRequest(t, app, cred.Code, "fp-1")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["credential_id"] != cred.ID {
		t.Fatalf("expected credential id in locals, got %v", body)
	}
}

func TestSessionGateRejectsWithKind(t *testing.T) {
	app, cred := setupGateApp(t)

	cases := []struct {
		name        string
		code        string
		fingerprint string
		status      int
		kind        string
	}{
		{"missing headers", "", "", fiber.StatusUnauthorized, "missing_credentials"},
		{"unknown code", "ACE-XXXX-XXXX-XXXX", "fp-1", fiber.StatusUnauthorized, "invalid_credential"},
		{"wrong device", cred.Code, "fp-2", fiber.StatusForbidden, "device_mismatch"},
	}
	for _, tc := range cases {
		status, body := gateRequest(t, app, tc.code, tc.fingerprint)
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d (%v)", tc.name, tc.status, status, body)
		}
		if body["error_kind"] != tc.kind {
			t.Fatalf("%s: expected kind %q, got %v", tc.name, tc.kind, body)
		}
	}
}

func TestSessionGateRejectsExpiredWithDate(t *testing.T) {
	repo := credential.NewMemoryRepository()
	svc := credential.NewService(repo, nil, time.Hour)

	cred, err := svc.Generate(context.Background(), credential.GenerateInput{Origin: credential.OriginAdminManual})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), cred.Code, "fp-1", true); err != nil {
		t.Fatalf("bind: %v", err)
	}

	app := fiber.New()
	app.Use(SessionGate(svc))
	app.Get("/protected", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	// Not yet expired: allowed.
	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(HeaderAccessCode, cred.Code)
	req.Header.Set(HeaderDeviceFingerprint, "fp-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 before expiry, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Seed a long-expired binding directly and expect a dated rejection.
	fp := "fp-1"
	boundAt := time.Now().UTC().Add(-48 * time.Hour)
	expiresAt := boundAt.Add(time.Hour)
	expired := credential.Credential{
		ID:                "11111111-1111-1111-1111-111111111111",
		Code:              "ACE-TEST-GATE-EXPD",
		Origin:            credential.OriginAdminManual,
		IsActive:          true,
		DeviceFingerprint: &fp,
		BoundAt:           &boundAt,
		ExpiresAt:         &expiresAt,
		CreatedAt:         boundAt,
	}
	if err := repo.Create(context.Background(), expired); err != nil {
		t.Fatalf("seed expired credential: %v", err)
	}

	status, body := gateRequest(t, app, expired.Code, fp)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 after expiry, got %d (%v)", status, body)
	}
	if body["error_kind"] != "expired" {
		t.Fatalf("expected kind expired, got %v", body)
	}
}
