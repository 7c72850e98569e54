// Package handler exposes the analytics core over HTTP. Handlers stay
// thin: validate, fetch the post feed, delegate to a service, cache.
package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/Werewolf05/Pulselytics/internal/middleware"
	"github.com/Werewolf05/Pulselytics/internal/repository"
	"github.com/Werewolf05/Pulselytics/internal/service"
)

type AnalyticsHandler struct {
	posts     *repository.PostRepo
	anomalies *service.AnomalyService
	trends    *service.TrendService
	insights  *service.InsightService
	cache     *service.CacheService
	metrics   *Metrics

	defaultDropThreshold float64
}

func NewAnalyticsHandler(
	posts *repository.PostRepo,
	anomalies *service.AnomalyService,
	trends *service.TrendService,
	insights *service.InsightService,
	cache *service.CacheService,
	metrics *Metrics,
	defaultDropThreshold float64,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		posts:                posts,
		anomalies:            anomalies,
		trends:               trends,
		insights:             insights,
		cache:                cache,
		metrics:              metrics,
		defaultDropThreshold: defaultDropThreshold,
	}
}

// GetAnomalies handles GET /api/clients/:clientId/anomalies.
func (h *AnalyticsHandler) GetAnomalies(c fiber.Ctx) error {
	clientID := c.Params("clientId")
	key := service.AnalysisKey(clientID, "anomalies")

	var cached map[string]any
	if h.cache.GetJSON(c.RequestCtx(), key, &cached) {
		h.metrics.ObserveCache(true)
		return c.JSON(cached)
	}
	h.metrics.ObserveCache(false)

	posts, err := h.posts.ListByClient(c.RequestCtx(), clientID)
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	result, err := h.anomalies.Detect(clientID, posts)
	if err != nil {
		log.Error().Err(err).Msg("anomaly detection failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError,
			"DETECTION_FAILED", "anomaly detection failed")
	}

	h.metrics.ObserveAnalysis("anomalies")
	h.metrics.ObserveAnomalies(result)
	h.cache.SetJSON(c.RequestCtx(), key, result, service.AnalysisTTL)
	return c.JSON(result)
}

// GetTrends handles GET /api/clients/:clientId/trends.
func (h *AnalyticsHandler) GetTrends(c fiber.Ctx) error {
	clientID := c.Params("clientId")
	key := service.AnalysisKey(clientID, "trends")

	var cached map[string]any
	if h.cache.GetJSON(c.RequestCtx(), key, &cached) {
		h.metrics.ObserveCache(true)
		return c.JSON(cached)
	}
	h.metrics.ObserveCache(false)

	posts, err := h.posts.ListByClient(c.RequestCtx(), clientID)
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	summary := h.trends.DetectTrends(posts)
	h.metrics.ObserveAnalysis("trends")
	h.cache.SetJSON(c.RequestCtx(), key, summary, service.AnalysisTTL)
	return c.JSON(summary)
}

// GetEngagementDrop handles GET /api/clients/:clientId/engagement-drop.
// The optional threshold query overrides the configured default, so results
// are not cached across callers.
func (h *AnalyticsHandler) GetEngagementDrop(c fiber.Ctx) error {
	threshold, ok := middleware.ParseThreshold(c.Query("threshold"), h.defaultDropThreshold)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest,
			"INVALID_THRESHOLD", "threshold must be a fraction in (0, 1]")
	}

	posts, err := h.posts.ListByClient(c.RequestCtx(), c.Params("clientId"))
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	report := h.trends.DetectEngagementDrop(posts, threshold)
	h.metrics.ObserveAnalysis("engagement_drop")
	return c.JSON(report)
}

// GetOptimalTimes handles GET /api/clients/:clientId/optimal-times.
func (h *AnalyticsHandler) GetOptimalTimes(c fiber.Ctx) error {
	platform := c.Query("platform")
	if !middleware.ValidPlatform(platform) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest,
			"INVALID_PLATFORM", "unsupported platform")
	}

	posts, err := h.posts.ListByClient(c.RequestCtx(), c.Params("clientId"))
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}
	if platform != "" {
		filtered := posts[:0]
		for _, p := range posts {
			if p.Platform == platform {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	report := h.trends.OptimalPostingTimes(posts, platform)
	h.metrics.ObserveAnalysis("optimal_times")
	return c.JSON(report)
}

// GetInsights handles GET /api/clients/:clientId/insights.
func (h *AnalyticsHandler) GetInsights(c fiber.Ctx) error {
	clientID := c.Params("clientId")
	key := service.AnalysisKey(clientID, "insights")

	var cached map[string]any
	if h.cache.GetJSON(c.RequestCtx(), key, &cached) {
		h.metrics.ObserveCache(true)
		return c.JSON(cached)
	}
	h.metrics.ObserveCache(false)

	summary, err := h.posts.Summary(c.RequestCtx(), clientID)
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	insights := h.insights.QuickInsights(summary)
	h.metrics.ObserveAnalysis("insights")
	h.cache.SetJSON(c.RequestCtx(), key, insights, service.InsightsTTL)
	return c.JSON(insights)
}
