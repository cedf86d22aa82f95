package payment

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/credential"
)

// faultyRepository simulates storage trouble on the reference lookup.
type faultyRepository struct {
	credential.Repository
	err error
}

func (r faultyRepository) FindByPaymentReference(context.Context, string) (credential.Credential, error) {
	return credential.Credential{}, r.err
}

// collidingRepository makes every insert collide, exhausting generation.
type collidingRepository struct {
	credential.Repository
}

func (collidingRepository) FindByPaymentReference(context.Context, string) (credential.Credential, error) {
	return credential.Credential{}, credential.ErrNotFound
}

func (collidingRepository) Create(context.Context, credential.Credential) error {
	return credential.ErrDuplicateCode
}

func setupCompleteApp(repo credential.Repository) *fiber.App {
	creds := credential.NewService(repo, nil, 0)
	handler := NewHandler(NewService(creds, repo, nil, nil, 0))
	app := fiber.New()
	app.Post("/payments/complete", handler.Complete)
	return app
}

func completeRequest(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/payments/complete", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestCompleteAnswersServiceFailuresAsRetryable(t *testing.T) {
	storageDown := faultyRepository{err: errors.New("timeout: connection reset")}
	if status := completeRequest(t, setupCompleteApp(storageDown), `{"reference":"ref-1"}`); status != fiber.StatusServiceUnavailable {
		t.Fatalf("storage failure must answer 503, got %d", status)
	}

	if status := completeRequest(t, setupCompleteApp(collidingRepository{}), `{"reference":"ref-2"}`); status != fiber.StatusServiceUnavailable {
		t.Fatalf("generation exhaustion must answer 503, got %d", status)
	}
}

func TestCompleteRejectsMissingReference(t *testing.T) {
	app := setupCompleteApp(credential.NewMemoryRepository())
	if status := completeRequest(t, app, `{}`); status != fiber.StatusBadRequest {
		t.Fatalf("missing reference must answer 400, got %d", status)
	}
}
