package model

// Model kinds stored in the registry, keyed per client.
const (
	KindPredictor = "predictor"
	KindDetector  = "detector"
)

// ArtifactMetadata describes one trained artifact version. Stored in the
// registry index alongside the artifact file and returned by status lookups.
type ArtifactMetadata struct {
	Version        string  `json:"version"`
	TrainedOn      string  `json:"trainedOn"`
	SamplesTrained int     `json:"samplesTrained"`
	FeaturesUsed   int     `json:"featuresUsed,omitempty"`
	ValidationScore float64 `json:"validationScore,omitempty"`

	// Detector-only baseline snapshot for quick status display.
	BaselineAvgLikes    int `json:"baselineAvgLikes,omitempty"`
	BaselineAvgComments int `json:"baselineAvgComments,omitempty"`
}
