package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/Werewolf05/Pulselytics/internal/model"
)

// Metrics aggregates the service's Prometheus collectors.
type Metrics struct {
	analyses         *prometheus.CounterVec
	anomaliesFlagged *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	predictions      prometheus.Counter
	cacheResults     *prometheus.CounterVec
}

func NewMetrics(pool *pgxpool.Pool) *Metrics {
	m := &Metrics{
		analyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulselytics_analyses_total",
			Help: "Completed analysis requests by kind.",
		}, []string{"kind"}),
		anomaliesFlagged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulselytics_anomalies_flagged_total",
			Help: "Anomalies reported to clients by severity.",
		}, []string{"severity"}),
		trainingDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulselytics_training_duration_seconds",
			Help:    "Model training duration by model kind.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
		predictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulselytics_predictions_total",
			Help: "Candidate post predictions served.",
		}),
		cacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulselytics_cache_requests_total",
			Help: "Cache lookups by result.",
		}, []string{"result"}),
	}

	if pool != nil {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pulselytics_db_connections_total",
			Help: "Open connections in the database pool.",
		}, func() float64 { return float64(pool.Stat().TotalConns()) })
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pulselytics_db_connections_idle",
			Help: "Idle connections in the database pool.",
		}, func() float64 { return float64(pool.Stat().IdleConns()) })
	}
	return m
}

func (m *Metrics) ObserveAnalysis(kind string) {
	m.analyses.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveAnomalies(result model.DetectionResult) {
	for _, a := range result.Anomalies {
		m.anomaliesFlagged.WithLabelValues(a.Severity).Inc()
	}
}

func (m *Metrics) ObserveTraining(kind string, elapsed time.Duration) {
	m.trainingDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePrediction() {
	m.predictions.Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.cacheResults.WithLabelValues("hit").Inc()
	} else {
		m.cacheResults.WithLabelValues("miss").Inc()
	}
}

// Handler exposes the Prometheus scrape endpoint through fasthttp.
func (m *Metrics) Handler() fiber.Handler {
	adapted := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		adapted(c.RequestCtx())
		return nil
	}
}
