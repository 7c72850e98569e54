package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Werewolf05/Pulselytics/internal/repository"
	"github.com/Werewolf05/Pulselytics/internal/service"
)

type HealthHandler struct {
	posts *repository.PostRepo
	cache *service.CacheService
}

func NewHealthHandler(posts *repository.PostRepo, cache *service.CacheService) *HealthHandler {
	return &HealthHandler{posts: posts, cache: cache}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready reports dependency health. The database is required; the cache is
// reported but never fails readiness.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	dbStatus := "ok"
	cacheStatus := "ok"

	if err := h.posts.Healthy(c.RequestCtx()); err != nil {
		dbStatus = "down"
	}
	if err := h.cache.Ping(c.RequestCtx()); err != nil {
		cacheStatus = "down"
	}

	body := fiber.Map{"database": dbStatus, "cache": cacheStatus}
	if dbStatus != "ok" {
		body["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	body["status"] = "ok"
	return c.JSON(body)
}
