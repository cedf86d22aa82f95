package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/exam"
)

// RegisterExamRoutes wires the session endpoints. The router is expected to
// already carry the credential session gate.
func RegisterExamRoutes(r fiber.Router, handler *exam.Handler) {
	r.Post("/start", handler.Start)
	r.Post("/:sessionId/submit", handler.Submit)
	r.Get("/:sessionId/result", handler.Result)
}
