package service

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/Werewolf05/Pulselytics/internal/feature"
	"github.com/Werewolf05/Pulselytics/internal/ml"
	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/internal/registry"
	"github.com/Werewolf05/Pulselytics/internal/stats"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

const (
	// Z-score cutoff for the rule-based fallback.
	fallbackSigma = 3.0
	// Fallback mode reports at most this many anomalies.
	fallbackLimit = 10

	viralLikesFactor        = 2.0
	extremeViralLikesFactor = 3.0
	lowLikesFactor          = 0.3
	controversialFactor     = 3.0
	lowEngagementRate       = 0.01

	highScoreCutoff   = 0.7
	mediumScoreCutoff = 0.6
)

// DetectorArtifact is the persisted state of a trained anomaly detector.
type DetectorArtifact struct {
	Columns   []string            `json:"columns"`
	Scaler    ml.StandardScaler   `json:"scaler"`
	Forest    *ml.IsolationForest `json:"forest"`
	Threshold float64             `json:"threshold"`
	Baseline  stats.Baseline      `json:"baseline"`
}

// AnomalyService trains isolation-forest detectors per client and scores
// post histories, falling back to baseline sigma rules when no model can be
// used.
type AnomalyService struct {
	registry *registry.Registry

	contamination float64
	numTrees      int
	minSamples    int
	seed          int64
}

func NewAnomalyService(reg *registry.Registry, contamination float64, numTrees, minSamples int, seed int64) *AnomalyService {
	return &AnomalyService{
		registry:      reg,
		contamination: contamination,
		numTrees:      numTrees,
		minSamples:    minSamples,
		seed:          seed,
	}
}

// Train fits a detector on the client's history and persists it. Histories
// below the minimum sample count produce an insufficient_data report and no
// artifact.
func (s *AnomalyService) Train(clientID string, posts []model.PostRecord) (model.TrainingReport, error) {
	if len(posts) < s.minSamples {
		return model.TrainingReport{
			Status: model.StatusInsufficientData,
			Reason: fmt.Sprintf("need at least %d posts, have %d", s.minSamples, len(posts)),
		}, nil
	}

	artifact, err := s.fit(posts)
	if err != nil {
		return model.TrainingReport{}, err
	}

	meta := model.ArtifactMetadata{
		SamplesTrained:      len(posts),
		FeaturesUsed:        len(artifact.Columns),
		BaselineAvgLikes:    numeric.SafeInt(artifact.Baseline.AvgLikes),
		BaselineAvgComments: numeric.SafeInt(artifact.Baseline.AvgComments),
	}
	if err := s.registry.Save(clientID, model.KindDetector, artifact, meta); err != nil {
		return model.TrainingReport{}, err
	}
	saved, err := s.registry.Meta(clientID, model.KindDetector)
	if err != nil {
		return model.TrainingReport{}, err
	}

	log.Printf("anomaly detector trained: client=%s samples=%d threshold=%.3f",
		clientID, len(posts), artifact.Threshold)

	return model.TrainingReport{
		Status:         model.StatusSuccess,
		Version:        saved.Version,
		TrainedOn:      saved.TrainedOn,
		SamplesTrained: len(posts),
		FeaturesUsed:   len(artifact.Columns),
	}, nil
}

// Detect scores a post history. With a trained artifact (or enough data to
// fit one on the fly) it runs in model mode; otherwise it applies baseline
// sigma rules. An empty history is below the model minimum and reports an
// empty rule-mode result.
func (s *AnomalyService) Detect(clientID string, posts []model.PostRecord) (model.DetectionResult, error) {
	if len(posts) == 0 {
		return model.DetectionResult{Mode: model.DetectionModeRule, Anomalies: []model.AnomalyRecord{}}, nil
	}

	var artifact DetectorArtifact
	if _, err := s.registry.Load(clientID, model.KindDetector, &artifact); err == nil {
		return s.detectWithModel(&artifact, posts)
	}

	if len(posts) >= s.minSamples {
		// Enough history to fit in-call. The throwaway model is not
		// persisted; explicit training owns artifact lifecycle.
		fitted, err := s.fit(posts)
		if err == nil {
			return s.detectWithModel(fitted, posts)
		}
		log.Printf("in-call detector fit failed, using fallback rules: client=%s err=%v", clientID, err)
	}

	return s.detectWithRules(posts), nil
}

func (s *AnomalyService) fit(posts []model.PostRecord) (*DetectorArtifact, error) {
	rows := feature.DetectionMatrix(posts)

	artifact := &DetectorArtifact{
		Columns:  feature.DetectionColumns,
		Baseline: stats.ComputeBaseline(posts),
	}

	scaled, err := artifact.Scaler.FitTransform(rows)
	if err != nil {
		return nil, err
	}

	sampleSize := len(scaled)
	if sampleSize > 256 {
		sampleSize = 256
	}
	artifact.Forest = ml.NewIsolationForest(s.numTrees, sampleSize, s.seed)
	if err := artifact.Forest.Fit(scaled); err != nil {
		return nil, err
	}
	artifact.Threshold = ml.ScoreThreshold(artifact.Forest.Scores(scaled), s.contamination)
	return artifact, nil
}

func (s *AnomalyService) detectWithModel(artifact *DetectorArtifact, posts []model.PostRecord) (model.DetectionResult, error) {
	rows := feature.DetectionMatrix(posts)
	scaled, err := artifact.Scaler.Transform(rows)
	if err != nil {
		return model.DetectionResult{}, err
	}
	scores := artifact.Forest.Scores(scaled)

	result := model.DetectionResult{
		Mode:      model.DetectionModeModel,
		Anomalies: []model.AnomalyRecord{},
		Analyzed:  len(posts),
	}
	for i := range posts {
		if scores[i] < artifact.Threshold {
			continue
		}
		rec := buildAnomaly(&posts[i], artifact.Baseline)
		rec.Score = numeric.RoundTo(scores[i], 4)
		if rec.Severity == "" {
			switch {
			case scores[i] >= highScoreCutoff:
				rec.Severity = model.SeverityHigh
			case scores[i] >= mediumScoreCutoff:
				rec.Severity = model.SeverityMedium
			default:
				rec.Severity = model.SeverityLow
			}
		}
		result.Anomalies = append(result.Anomalies, rec)
	}

	sort.SliceStable(result.Anomalies, func(i, j int) bool {
		return result.Anomalies[i].Score > result.Anomalies[j].Score
	})
	return result, nil
}

// detectWithRules flags posts more than three standard deviations from the
// history's own baseline.
func (s *AnomalyService) detectWithRules(posts []model.PostRecord) model.DetectionResult {
	baseline := stats.ComputeBaseline(posts)

	result := model.DetectionResult{
		Mode:      model.DetectionModeRule,
		Anomalies: []model.AnomalyRecord{},
		Analyzed:  len(posts),
	}
	for i := range posts {
		p := &posts[i]
		likesZ := baseline.LikesZScore(numeric.Finite(p.Likes))
		commentsZ := baseline.CommentsZScore(numeric.Finite(p.Comments))
		if math.Abs(likesZ) < fallbackSigma && math.Abs(commentsZ) < fallbackSigma {
			continue
		}

		rec := buildAnomaly(p, baseline)
		if rec.Severity == "" {
			if math.Abs(rec.Deviation.LikesPct) > 200 {
				rec.Severity = model.SeverityHigh
			} else {
				rec.Severity = model.SeverityMedium
			}
		}
		result.Anomalies = append(result.Anomalies, rec)
	}

	sort.SliceStable(result.Anomalies, func(i, j int) bool {
		return math.Abs(result.Anomalies[i].Deviation.LikesPct) > math.Abs(result.Anomalies[j].Deviation.LikesPct)
	})
	if len(result.Anomalies) > fallbackLimit {
		result.Skipped = len(result.Anomalies) - fallbackLimit
		result.Anomalies = result.Anomalies[:fallbackLimit]
	}
	return result
}

// buildAnomaly categorizes one flagged post against the baseline. Severity
// is set only where the category implies it; callers fill the rest.
func buildAnomaly(p *model.PostRecord, baseline stats.Baseline) model.AnomalyRecord {
	likes := numeric.Finite(p.Likes)
	comments := numeric.Finite(p.Comments)
	rate := numeric.Finite(p.EngagementRate())

	rec := model.AnomalyRecord{
		PostURL:  p.PostURL,
		Platform: p.Platform,
		MetricValues: model.MetricValues{
			Likes:    numeric.SafeInt(likes),
			Comments: numeric.SafeInt(comments),
			Views:    numeric.SafeInt(numeric.Finite(p.Views)),
		},
		Deviation: model.Deviation{
			LikesPct:    numeric.RoundTo(numeric.PctChange(likes, baseline.AvgLikes), 1),
			CommentsPct: numeric.RoundTo(numeric.PctChange(comments, baseline.AvgComments), 1),
		},
	}
	if !p.UploadDate.IsZero() {
		rec.Date = p.UploadDate.Format(time.RFC3339)
	}

	switch {
	case baseline.AvgLikes > 0 && likes > viralLikesFactor*baseline.AvgLikes:
		rec.Category = model.AnomalyViralSpike
		if likes > extremeViralLikesFactor*baseline.AvgLikes {
			rec.Severity = model.SeverityHigh
		} else {
			rec.Severity = model.SeverityMedium
		}
		rec.AlertMessage = fmt.Sprintf("Post pulled %d likes against a %d average",
			rec.MetricValues.Likes, numeric.SafeInt(baseline.AvgLikes))
	case baseline.AvgLikes > 0 && likes < lowLikesFactor*baseline.AvgLikes:
		rec.Category = model.AnomalyLowPerformance
		rec.AlertMessage = fmt.Sprintf("Post got %d likes, well below the %d average",
			rec.MetricValues.Likes, numeric.SafeInt(baseline.AvgLikes))
	case baseline.AvgComments > 0 && comments > controversialFactor*baseline.AvgComments:
		rec.Category = model.AnomalyControversial
		rec.AlertMessage = fmt.Sprintf("Comment count %d is far above the %d average",
			rec.MetricValues.Comments, numeric.SafeInt(baseline.AvgComments))
	case rate < lowEngagementRate:
		rec.Category = model.AnomalyLowEngagement
		rec.AlertMessage = "Engagement rate under 1% of views"
	default:
		rec.Category = model.AnomalyUnusualPattern
		rec.AlertMessage = "Engagement pattern deviates from this account's baseline"
	}
	return rec
}
