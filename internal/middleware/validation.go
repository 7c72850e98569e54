package middleware

import (
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Werewolf05/Pulselytics/internal/model"
)

const maxCaptionLength = 5000

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidClientID reports whether an identifier is safe to use in registry
// file names and cache keys.
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

// RequireClientID rejects requests whose :clientId parameter is missing or
// malformed before any handler runs.
func RequireClientID() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !ValidClientID(c.Params("clientId")) {
			return ErrorResponse(c, fiber.StatusBadRequest,
				"INVALID_CLIENT_ID", "client id must be 1-64 characters of letters, digits, dash, or underscore")
		}
		return c.Next()
	}
}

// ValidPlatform accepts the supported platforms or empty (meaning all).
func ValidPlatform(platform string) bool {
	return platform == "" || model.ValidPlatforms[platform]
}

// ParseThreshold parses a drop-threshold query value as a fraction in
// (0, 1]. Empty input returns the fallback.
func ParseThreshold(raw string, fallback float64) (float64, bool) {
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > 1 {
		return 0, false
	}
	return v, true
}

// ValidCaption bounds caption length so feature extraction stays cheap.
func ValidCaption(caption string) bool {
	return len(caption) <= maxCaptionLength
}
