package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/admin"
	"github.com/acepass/acepass/internal/auth"
	"github.com/acepass/acepass/internal/credential"
	"github.com/acepass/acepass/internal/exam"
	"github.com/acepass/acepass/internal/middleware"
)

// AdminDeps aggregates the services behind the administrative console.
type AdminDeps struct {
	Admins      *admin.Service
	AdminRepo   admin.Repository
	Tokens      *auth.Service
	Credentials *credential.Service
	Exams       *exam.Handler
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type generateCredentialRequest struct {
	PurchaserName   string `json:"purchaser_name"`
	ExamEntitlement string `json:"exam_entitlement"`
	Note            string `json:"note"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// RegisterAdminRoutes wires the administrative console: login with forced
// bootstrap rotation, the credential console and catalogue management.
func RegisterAdminRoutes(r fiber.Router, d AdminDeps) {
	grp := r.Group("/admin")

	grp.Post("/login", func(c *fiber.Ctx) error {
		var req adminLoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		account, err := d.Admins.Authenticate(c.UserContext(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, admin.ErrBootstrapExhausted):
				return fiber.NewError(http.StatusForbidden, err.Error())
			case errors.Is(err, admin.ErrInvalidLogin):
				return fiber.NewError(http.StatusUnauthorized, err.Error())
			default:
				return fiber.NewError(http.StatusServiceUnavailable, "login temporarily unavailable")
			}
		}
		token, err := d.Tokens.Issue(account)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "token issuance failed")
		}
		return c.JSON(fiber.Map{
			"access_token":      token.AccessToken,
			"expires_in":        token.ExpiresIn,
			"rotation_required": account.Bootstrap && account.RotatedAt == nil,
		})
	})

	guarded := grp.Group("", middleware.AdminAuth(d.Tokens, d.AdminRepo))

	guarded.Post("/password", func(c *fiber.Ctx) error {
		var req changePasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		adminID, _ := c.Locals(middleware.AdminIDKey).(string)
		if err := d.Admins.ChangePassword(c.UserContext(), adminID, req.CurrentPassword, req.NewPassword); err != nil {
			if errors.Is(err, admin.ErrInvalidLogin) {
				return fiber.NewError(http.StatusUnauthorized, err.Error())
			}
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	// Credential console
	guarded.Get("/credentials", func(c *fiber.Ctx) error {
		summaries, err := d.Credentials.List(c.UserContext(), credential.Filter(c.Query("filter")))
		if err != nil {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(summaries)
	})

	guarded.Post("/credentials", func(c *fiber.Ctx) error {
		var req generateCredentialRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		cred, err := d.Credentials.Generate(c.UserContext(), credential.GenerateInput{
			Origin: credential.OriginAdminManual,
			Metadata: credential.Metadata{
				PurchaserName:   req.PurchaserName,
				ExamEntitlement: req.ExamEntitlement,
				Note:            req.Note,
			},
		})
		if err != nil {
			if errors.Is(err, credential.ErrGenerationExhausted) {
				return fiber.NewError(http.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"id": cred.ID, "code": cred.Code})
	})

	guarded.Post("/credentials/:id/reset-binding", func(c *fiber.Ctx) error {
		if err := d.Credentials.ResetBinding(c.UserContext(), c.Params("id")); err != nil {
			return mapCredentialAdminError(err)
		}
		return c.SendStatus(http.StatusNoContent)
	})

	guarded.Post("/credentials/:id/active", func(c *fiber.Ctx) error {
		var req setActiveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := d.Credentials.SetActive(c.UserContext(), c.Params("id"), req.Active); err != nil {
			return mapCredentialAdminError(err)
		}
		return c.SendStatus(http.StatusNoContent)
	})

	guarded.Delete("/credentials/:id", func(c *fiber.Ctx) error {
		if err := d.Credentials.Delete(c.UserContext(), c.Params("id")); err != nil {
			return mapCredentialAdminError(err)
		}
		return c.SendStatus(http.StatusNoContent)
	})

	// Catalogue management
	guarded.Post("/subjects", d.Exams.CreateSubject)
	guarded.Put("/subjects/:id", d.Exams.UpdateSubject)
	guarded.Delete("/subjects/:id", d.Exams.DeleteSubject)
	guarded.Post("/questions", d.Exams.CreateQuestion)
	guarded.Put("/questions/:id", d.Exams.UpdateQuestion)
	guarded.Delete("/questions/:id", d.Exams.DeleteQuestion)
	guarded.Post("/questions/import", d.Exams.ImportQuestions)
}

func mapCredentialAdminError(err error) error {
	if errors.Is(err, credential.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return fiber.NewError(http.StatusServiceUnavailable, err.Error())
}
