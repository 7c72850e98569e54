package model

// Anomaly categories. Assigned from baseline-comparison rules, independent of
// severity.
const (
	AnomalyViralSpike     = "viral_spike"
	AnomalyLowPerformance = "low_performance"
	AnomalyControversial  = "controversial"
	AnomalyLowEngagement  = "low_engagement"
	AnomalyUnusualPattern = "unusual_pattern"
)

// Severity levels for anomalies and engagement drops.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Detection modes reported in DetectionResult.
const (
	DetectionModeModel = "model"
	DetectionModeRule  = "rule"
)

// MetricValues is the NaN-safe metric snapshot attached to each anomaly.
type MetricValues struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Views    int `json:"views"`
}

// Deviation holds percentage deviations from the baseline mean.
type Deviation struct {
	LikesPct    float64 `json:"likesPct"`
	CommentsPct float64 `json:"commentsPct"`
}

// AnomalyRecord is one flagged post with its classification and context.
type AnomalyRecord struct {
	PostURL      string       `json:"postUrl"`
	Platform     string       `json:"platform"`
	Date         string       `json:"date"`
	Category     string       `json:"category"`
	Severity     string       `json:"severity"`
	Score        float64      `json:"score,omitempty"` // model mode only, higher = more anomalous
	MetricValues MetricValues `json:"metricValues"`
	Deviation    Deviation    `json:"deviation"`
	AlertMessage string       `json:"alertMessage"`
}

// DetectionResult is the outcome of one anomaly detection run. Mode records
// which strategy produced the anomalies so callers can distinguish a fitted
// model run from the small-sample rule fallback.
type DetectionResult struct {
	Mode      string          `json:"mode"`
	Anomalies []AnomalyRecord `json:"anomalies"`
	Analyzed  int             `json:"analyzed"`
	Skipped   int             `json:"skipped,omitempty"`
}
