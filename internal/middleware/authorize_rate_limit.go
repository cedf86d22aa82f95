package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// AuthorizeRateLimit throttles authorization attempts per code (falling back
// to client IP) using Redis if available. Access codes are purchased goods;
// unbounded guessing would be free exam access.
func AuthorizeRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Code string `json:"code"`
		}
		_ = c.BodyParser(&req)
		key := strings.TrimSpace(req.Code)
		if key == "" {
			key = c.IP()
		}
		key = "rl:authorize:" + strings.ToUpper(key)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many authorization attempts, try again later")
		}
		return c.Next()
	}
}
