package payment

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the payment completion endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Complete verifies the referenced payment and returns the access code.
// Fresh issuance answers 201, an idempotent replay answers 200 with the
// original code.
func (h *Handler) Complete(c *fiber.Ctx) error {
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Reference == "" {
		return fiber.NewError(http.StatusBadRequest, "payment reference is required")
	}

	cred, created, err := h.service.CompletePayment(c.UserContext(), CompleteInput{
		Reference:       req.Reference,
		PurchaserName:   req.PurchaserName,
		ExamEntitlement: req.ExamEntitlement,
	})
	if err != nil {
		if errors.Is(err, ErrPaymentNotVerified) {
			return fiber.NewError(http.StatusPaymentRequired, err.Error())
		}
		// Storage trouble and code-generation exhaustion are service
		// failures; the caller may retry, no code was released.
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	return c.Status(status).JSON(CompleteResponse{
		Code:       cred.Code,
		AmountPaid: cred.Metadata.AmountPaid,
		Replayed:   !created,
	})
}
