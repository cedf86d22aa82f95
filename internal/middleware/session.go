package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/credential"
)

const (
	// HeaderAccessCode carries the student's access code on gated requests.
	HeaderAccessCode = "X-Access-Code"
	// HeaderDeviceFingerprint carries the client-derived device identity.
	HeaderDeviceFingerprint = "X-Device-Fingerprint"

	// CredentialIDKey is the fiber local under which the gate stores the
	// validated credential id.
	CredentialIDKey = "credential_id"
)

// SessionGate guards exam operations behind a valid, device-bound, unexpired
// credential. It never offers the binding-confirmation flow: recovery from a
// mismatch or expiry goes through an administrator, not through re-binding.
//
// Every rejection discloses its kind; the corrective action differs between
// "buy a new code", "contact an administrator" and "retry later".
func SessionGate(credentials *credential.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Get(HeaderAccessCode)
		fingerprint := c.Get(HeaderDeviceFingerprint)
		if code == "" || fingerprint == "" {
			return reject(c, http.StatusUnauthorized, "missing_credentials",
				"access code and device fingerprint headers are required")
		}

		cred, err := credentials.Check(c.UserContext(), code, fingerprint)
		if err != nil {
			return rejectAuthzError(c, err)
		}

		c.Locals(CredentialIDKey, cred.ID)
		return c.Next()
	}
}

// rejectAuthzError maps the credential error taxonomy onto HTTP responses.
// Unknown errors are treated as transient storage trouble: retryable, never a
// definitive denial.
func rejectAuthzError(c *fiber.Ctx, err error) error {
	var expired *credential.ExpiredError
	switch {
	case errors.Is(err, credential.ErrInvalidCredential):
		return reject(c, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, credential.ErrNotBound):
		return reject(c, http.StatusUnauthorized, "not_bound", err.Error())
	case errors.Is(err, credential.ErrDeactivated):
		return reject(c, http.StatusForbidden, "deactivated", err.Error())
	case errors.Is(err, credential.ErrDeviceMismatch):
		return reject(c, http.StatusForbidden, "device_mismatch", err.Error())
	case errors.As(err, &expired):
		c.Set("X-Expired-At", expired.ExpiresAt.UTC().Format(timeFormat))
		return reject(c, http.StatusForbidden, "expired", err.Error())
	default:
		return reject(c, http.StatusServiceUnavailable, "unavailable",
			"authorization temporarily unavailable, retry")
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func reject(c *fiber.Ctx, status int, kind, detail string) error {
	return c.Status(status).JSON(fiber.Map{"error_kind": kind, "detail": detail})
}
