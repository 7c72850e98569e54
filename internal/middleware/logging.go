package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger. Unknown levels fall back
// to info.
func InitLogger(level, service string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

var clientIDSegment = regexp.MustCompile(`/clients/[^/]+`)

// sanitizePath collapses client identifiers so logs aggregate per route and
// never carry customer IDs.
func sanitizePath(path string) string {
	return clientIDSegment.ReplaceAllString(path, "/clients/:clientId")
}

// hashIP pseudonymizes a client address for log correlation.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}

// Logger emits one structured line per request.
func Logger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", hashIP(c.IP())).
			Msg("request")
		return err
	}
}
