package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// CORS allows the configured origins. "*" opens the API, intended for local
// development only.
func CORS(allowedOrigins string) fiber.Handler {
	origins := map[string]bool{}
	wildcard := false
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
		} else if o != "" {
			origins[o] = true
		}
	}

	return func(c fiber.Ctx) error {
		origin := c.Get("Origin")
		if wildcard {
			c.Set("Access-Control-Allow-Origin", "*")
		} else if origins[origin] {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Vary", "Origin")
		}
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
