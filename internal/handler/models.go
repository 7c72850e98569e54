package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/Werewolf05/Pulselytics/internal/middleware"
	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/internal/registry"
	"github.com/Werewolf05/Pulselytics/internal/repository"
	"github.com/Werewolf05/Pulselytics/internal/service"
)

type ModelsHandler struct {
	posts     *repository.PostRepo
	anomalies *service.AnomalyService
	predictor *service.PredictorService
	registry  *registry.Registry
	cache     *service.CacheService
	metrics   *Metrics
}

func NewModelsHandler(
	posts *repository.PostRepo,
	anomalies *service.AnomalyService,
	predictor *service.PredictorService,
	reg *registry.Registry,
	cache *service.CacheService,
	metrics *Metrics,
) *ModelsHandler {
	return &ModelsHandler{
		posts:     posts,
		anomalies: anomalies,
		predictor: predictor,
		registry:  reg,
		cache:     cache,
		metrics:   metrics,
	}
}

// TrainDetector handles POST /api/clients/:clientId/detector/train.
func (h *ModelsHandler) TrainDetector(c fiber.Ctx) error {
	clientID := c.Params("clientId")

	posts, err := h.posts.ListByClient(c.RequestCtx(), clientID)
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	start := time.Now()
	report, err := h.anomalies.Train(clientID, posts)
	if err != nil {
		log.Error().Err(err).Msg("detector training failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError,
			"TRAINING_FAILED", "detector training failed")
	}
	if report.Status == model.StatusSuccess {
		h.metrics.ObserveTraining(model.KindDetector, time.Since(start))
		h.cache.InvalidateClient(c.RequestCtx(), clientID)
	}
	return c.JSON(report)
}

// TrainPredictor handles POST /api/clients/:clientId/predictor/train.
func (h *ModelsHandler) TrainPredictor(c fiber.Ctx) error {
	clientID := c.Params("clientId")

	posts, err := h.posts.ListByClient(c.RequestCtx(), clientID)
	if err != nil {
		log.Error().Err(err).Msg("post feed unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"FEED_UNAVAILABLE", "could not load the post feed")
	}

	start := time.Now()
	report, err := h.predictor.Train(clientID, posts)
	if err != nil {
		log.Error().Err(err).Msg("predictor training failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError,
			"TRAINING_FAILED", "predictor training failed")
	}
	if report.Status == model.StatusSuccess {
		h.metrics.ObserveTraining(model.KindPredictor, time.Since(start))
	}
	return c.JSON(report)
}

// Predict handles POST /api/clients/:clientId/predictions.
func (h *ModelsHandler) Predict(c fiber.Ctx) error {
	var req model.PredictRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest,
			"INVALID_BODY", "request body must be JSON")
	}
	if req.Platform == "" || !middleware.ValidPlatform(req.Platform) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest,
			"INVALID_PLATFORM", "a supported platform is required")
	}
	if !middleware.ValidCaption(req.Caption) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest,
			"CAPTION_TOO_LONG", "caption exceeds the supported length")
	}
	if req.ScheduledTime != "" {
		if _, err := time.Parse(time.RFC3339, req.ScheduledTime); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest,
				"INVALID_SCHEDULED_TIME", "scheduledTime must be RFC 3339")
		}
	}

	pred, err := h.predictor.Predict(c.Params("clientId"), req)
	if err != nil {
		if errors.Is(err, model.ErrModelNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound,
				"MODEL_NOT_TRAINED", "train a predictor for this client first")
		}
		log.Error().Err(err).Msg("prediction failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError,
			"PREDICTION_FAILED", "prediction failed")
	}

	h.metrics.ObservePrediction()
	return c.JSON(pred)
}

// GetModels handles GET /api/clients/:clientId/models.
func (h *ModelsHandler) GetModels(c fiber.Ctx) error {
	return c.JSON(h.registry.Status(c.Params("clientId")))
}
