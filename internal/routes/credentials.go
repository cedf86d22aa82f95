package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/credential"
)

type authorizeRequest struct {
	Code              string `json:"code"`
	DeviceFingerprint string `json:"device_fingerprint"`
	ConfirmBinding    bool   `json:"confirm_binding"`
}

type authorizeResponse struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RegisterCredentialRoutes wires the public authorization endpoint.
func RegisterCredentialRoutes(r fiber.Router, credentials *credential.Service, rateLimiter fiber.Handler) {
	r.Post("/credentials/authorize", rateLimiter, func(c *fiber.Ctx) error {
		var req authorizeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		decision, err := credentials.Authorize(c.UserContext(), req.Code, req.DeviceFingerprint, req.ConfirmBinding)
		if err != nil {
			return respondAuthzError(c, err)
		}
		return c.Status(http.StatusOK).JSON(authorizeResponse{
			Status:    decision.Status,
			ExpiresAt: decision.ExpiresAt,
		})
	})
}

// respondAuthzError discloses the failure kind: the corrective action differs
// between buying a new code, contacting an administrator and retrying.
func respondAuthzError(c *fiber.Ctx, err error) error {
	var expired *credential.ExpiredError
	switch {
	case errors.Is(err, credential.ErrInvalidCredential):
		return rejectJSON(c, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, credential.ErrDeactivated):
		return rejectJSON(c, http.StatusForbidden, "deactivated", err.Error())
	case errors.Is(err, credential.ErrDeviceMismatch):
		return rejectJSON(c, http.StatusForbidden, "device_mismatch", err.Error())
	case errors.As(err, &expired):
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"error_kind": "expired",
			"detail":     err.Error(),
			"expired_at": expired.ExpiresAt.UTC(),
		})
	default:
		// Storage failures and lost binding races are retryable.
		return rejectJSON(c, http.StatusServiceUnavailable, "unavailable", "authorization temporarily unavailable, retry")
	}
}

func rejectJSON(c *fiber.Ctx, status int, kind, detail string) error {
	return c.Status(status).JSON(fiber.Map{"error_kind": kind, "detail": detail})
}
