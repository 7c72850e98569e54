package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Werewolf05/Pulselytics/internal/handler"
	"github.com/Werewolf05/Pulselytics/internal/middleware"
)

// Setup wires every route. Analysis reads are limited per IP; training is
// limited per client since it is the expensive path.
func Setup(
	app *fiber.App,
	analytics *handler.AnalyticsHandler,
	models *handler.ModelsHandler,
	health *handler.HealthHandler,
	metrics *handler.Metrics,
) {
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	app.Get("/metrics", metrics.Handler())

	clients := app.Group("/api/clients/:clientId", middleware.RequireClientID())

	analysisLimiter := middleware.AnalysisLimiter()
	clients.Get("/anomalies", analytics.GetAnomalies, analysisLimiter)
	clients.Get("/trends", analytics.GetTrends, analysisLimiter)
	clients.Get("/engagement-drop", analytics.GetEngagementDrop, analysisLimiter)
	clients.Get("/optimal-times", analytics.GetOptimalTimes, analysisLimiter)
	clients.Get("/insights", analytics.GetInsights, analysisLimiter)
	clients.Get("/models", models.GetModels, analysisLimiter)

	trainingLimiter := middleware.TrainingLimiter()
	clients.Post("/detector/train", models.TrainDetector, trainingLimiter)
	clients.Post("/predictor/train", models.TrainPredictor, trainingLimiter)
	clients.Post("/predictions", models.Predict)
}
