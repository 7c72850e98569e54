package model

// Confidence labels derived from validation score bands.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// PredictRequest is the API request for a candidate post prediction.
type PredictRequest struct {
	Caption       string `json:"caption"`
	Platform      string `json:"platform"`
	ScheduledTime string `json:"scheduledTime,omitempty"` // RFC3339; defaults to now
}

// Prediction is the predicted performance of a candidate post.
type Prediction struct {
	PredictedLikes          int     `json:"predictedLikes"`
	PredictedComments       int     `json:"predictedComments"`
	PredictedViews          int     `json:"predictedViews"`
	PredictedEngagementRate float64 `json:"predictedEngagementRate"`
	ViralityScore           int     `json:"viralityScore"`
	Confidence              string  `json:"confidence"`
	Recommendation          string  `json:"recommendation"`
}

// TrainingReport is the outcome of a training run. A failed run carries
// Status and Reason only; nothing is persisted.
type TrainingReport struct {
	Status         string  `json:"status"`
	Reason         string  `json:"reason,omitempty"`
	Version        string  `json:"version,omitempty"`
	TrainedOn      string  `json:"trainedOn,omitempty"`
	SamplesTrained int     `json:"samplesTrained,omitempty"`
	FeaturesUsed   int     `json:"featuresUsed,omitempty"`
	R2Likes        float64 `json:"r2Likes,omitempty"`
	R2Comments     float64 `json:"r2Comments,omitempty"`
	ValR2Likes     float64 `json:"valR2Likes,omitempty"`
	ValR2Comments  float64 `json:"valR2Comments,omitempty"`
}

// ModelStatus summarizes the trained artifacts for one client.
type ModelStatus struct {
	Predictor       *ArtifactMetadata `json:"predictor"`
	AnomalyDetector *ArtifactMetadata `json:"anomalyDetector"`
}
