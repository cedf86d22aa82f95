package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/acepass/acepass/internal/middleware"
	"github.com/acepass/acepass/internal/payment"
)

// RegisterPaymentRoutes wires the payment-to-credential bridge. Completion is
// wrapped in Redis idempotency when a cache is available; the dev fallback
// relies on the bridge's own reference deduplication.
func RegisterPaymentRoutes(r fiber.Router, handler *payment.Handler, cache *redis.Client, idempotencyTTL time.Duration, logger *slog.Logger) {
	group := r.Group("/payments")
	if cache != nil {
		group.Use(middleware.Idempotency(cache, idempotencyTTL, logger))
	}
	group.Post("/complete", handler.Complete)
}
