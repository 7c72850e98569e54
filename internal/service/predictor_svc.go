package service

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/Werewolf05/Pulselytics/internal/feature"
	"github.com/Werewolf05/Pulselytics/internal/ml"
	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/internal/registry"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

const (
	// Posts with zero likes and zero comments are treated as unscraped
	// rather than unpopular and are dropped before training.
	minValidSamples = 30

	validationFraction = 0.2
	ridgeAlpha         = 1.0

	confidenceHighR2   = 0.5
	confidenceMediumR2 = 0.2

	viralityBoostRate = 0.05
)

// PredictorArtifact is the persisted state of a trained engagement
// predictor: one ridge model per target plus the training engagement
// distribution used for virality percentiles.
type PredictorArtifact struct {
	Columns  []string          `json:"columns"`
	Scaler   ml.StandardScaler `json:"scaler"`
	Likes    *ml.Ridge         `json:"likes"`
	Comments *ml.Ridge         `json:"comments"`
	Views    *ml.Ridge         `json:"views"`

	// Sorted engagement totals of the training set.
	Engagements []float64 `json:"engagements"`

	ValR2Likes    float64 `json:"valR2Likes"`
	ValR2Comments float64 `json:"valR2Comments"`
}

// PredictorService trains per-client engagement predictors and scores
// candidate posts.
type PredictorService struct {
	registry *registry.Registry

	minSamples int
	seed       int64
}

func NewPredictorService(reg *registry.Registry, minSamples int, seed int64) *PredictorService {
	return &PredictorService{registry: reg, minSamples: minSamples, seed: seed}
}

// Train fits likes, comments, and views models on the client's history with
// a held-out validation split, then persists the artifact. Too little data
// produces an insufficient_data report and no artifact.
func (s *PredictorService) Train(clientID string, posts []model.PostRecord) (model.TrainingReport, error) {
	if len(posts) < s.minSamples {
		return model.TrainingReport{
			Status: model.StatusInsufficientData,
			Reason: fmt.Sprintf("need at least %d posts, have %d", s.minSamples, len(posts)),
		}, nil
	}

	valid := make([]model.PostRecord, 0, len(posts))
	hasViews := false
	for i := range posts {
		if numeric.Finite(posts[i].Likes) > 0 || numeric.Finite(posts[i].Comments) > 0 {
			valid = append(valid, posts[i])
			if numeric.Finite(posts[i].Views) > 0 {
				hasViews = true
			}
		}
	}
	if len(valid) < minValidSamples {
		return model.TrainingReport{
			Status: model.StatusInsufficientData,
			Reason: fmt.Sprintf("only %d posts carry engagement data, need %d", len(valid), minValidSamples),
		}, nil
	}

	rows, columns := feature.PredictionMatrix(valid)

	// Seeded shuffle so training runs are reproducible.
	order := rand.New(rand.NewSource(s.seed)).Perm(len(valid))
	valSize := int(float64(len(valid)) * validationFraction)
	if valSize < 1 {
		valSize = 1
	}
	trainIdx, valIdx := order[valSize:], order[:valSize]

	artifact := &PredictorArtifact{
		Columns:  columns,
		Likes:    ml.NewRidge(ridgeAlpha),
		Comments: ml.NewRidge(ridgeAlpha),
	}

	trainX, err := artifact.Scaler.FitTransform(pickRows(rows, trainIdx))
	if err != nil {
		return model.TrainingReport{}, fmt.Errorf("scale training features: %w", err)
	}
	valX, err := artifact.Scaler.Transform(pickRows(rows, valIdx))
	if err != nil {
		return model.TrainingReport{}, fmt.Errorf("scale validation features: %w", err)
	}

	type target struct {
		name  string
		ridge *ml.Ridge
		value func(*model.PostRecord) float64
	}
	targets := []target{
		{"likes", artifact.Likes, func(p *model.PostRecord) float64 { return numeric.Finite(p.Likes) }},
		{"comments", artifact.Comments, func(p *model.PostRecord) float64 { return numeric.Finite(p.Comments) }},
	}
	if hasViews {
		artifact.Views = ml.NewRidge(ridgeAlpha)
		targets = append(targets,
			target{"views", artifact.Views, func(p *model.PostRecord) float64 { return numeric.Finite(p.Views) }})
	}

	report := model.TrainingReport{
		Status:         model.StatusSuccess,
		SamplesTrained: len(trainIdx),
		FeaturesUsed:   len(columns),
	}
	for _, target := range targets {
		trainY := pickTargets(valid, trainIdx, target.value)
		valY := pickTargets(valid, valIdx, target.value)

		if err := target.ridge.Fit(trainX, trainY); err != nil {
			return model.TrainingReport{}, fmt.Errorf("train %s model: %w", target.name, err)
		}
		trainR2 := fittedR2(target.ridge, trainX, trainY)
		valR2 := fittedR2(target.ridge, valX, valY)

		switch target.name {
		case "likes":
			report.R2Likes = numeric.RoundTo(trainR2, 4)
			report.ValR2Likes = numeric.RoundTo(valR2, 4)
			artifact.ValR2Likes = valR2
		case "comments":
			report.R2Comments = numeric.RoundTo(trainR2, 4)
			report.ValR2Comments = numeric.RoundTo(valR2, 4)
			artifact.ValR2Comments = valR2
		}
	}

	artifact.Engagements = make([]float64, len(valid))
	for i := range valid {
		artifact.Engagements[i] = numeric.Finite(valid[i].Engagement())
	}
	sort.Float64s(artifact.Engagements)

	meta := model.ArtifactMetadata{
		SamplesTrained:  len(trainIdx),
		FeaturesUsed:    len(columns),
		ValidationScore: numeric.RoundTo((artifact.ValR2Likes+artifact.ValR2Comments)/2, 4),
	}
	if err := s.registry.Save(clientID, model.KindPredictor, artifact, meta); err != nil {
		return model.TrainingReport{}, err
	}
	saved, err := s.registry.Meta(clientID, model.KindPredictor)
	if err != nil {
		return model.TrainingReport{}, err
	}
	report.Version = saved.Version
	report.TrainedOn = saved.TrainedOn

	log.Printf("predictor trained: client=%s samples=%d valR2Likes=%.3f valR2Comments=%.3f",
		clientID, len(trainIdx), artifact.ValR2Likes, artifact.ValR2Comments)
	return report, nil
}

// Predict scores a candidate post with the client's trained predictor.
// Returns model.ErrModelNotFound when no artifact exists.
func (s *PredictorService) Predict(clientID string, req model.PredictRequest) (model.Prediction, error) {
	var artifact PredictorArtifact
	if _, err := s.registry.Load(clientID, model.KindPredictor, &artifact); err != nil {
		return model.Prediction{}, err
	}

	when := time.Now()
	if req.ScheduledTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			return model.Prediction{}, fmt.Errorf("invalid scheduledTime: %w", err)
		}
		when = parsed
	}

	candidate := model.PostRecord{
		Caption:    req.Caption,
		Platform:   req.Platform,
		UploadDate: when,
	}
	row, err := artifact.Scaler.TransformRow(feature.AlignRow(feature.PredictionRow(&candidate), artifact.Columns))
	if err != nil {
		return model.Prediction{}, err
	}

	likes, err := artifact.Likes.Predict(row)
	if err != nil {
		return model.Prediction{}, err
	}
	comments, err := artifact.Comments.Predict(row)
	if err != nil {
		return model.Prediction{}, err
	}

	// Histories without view data get a rough reach estimate instead.
	views := 5 * likes
	if artifact.Views != nil {
		views, err = artifact.Views.Predict(row)
		if err != nil {
			return model.Prediction{}, err
		}
	}

	pred := model.Prediction{
		PredictedLikes:    numeric.SafeInt(likes),
		PredictedComments: numeric.SafeInt(comments),
		PredictedViews:    numeric.SafeInt(views),
	}
	engagement := float64(pred.PredictedLikes + pred.PredictedComments)
	denominator := float64(pred.PredictedViews)
	if denominator < 1 {
		denominator = 1
	}
	pred.PredictedEngagementRate = numeric.RoundTo(engagement/denominator, 4)
	pred.ViralityScore = viralityScore(engagement, pred.PredictedEngagementRate, artifact.Engagements)
	pred.Confidence = confidenceLabel((artifact.ValR2Likes + artifact.ValR2Comments) / 2)
	pred.Recommendation = recommendationFor(pred.ViralityScore)
	return pred, nil
}

// viralityScore places the predicted engagement on the training
// distribution as a 0-100 percentile, with a small boost for posts that
// beat the median with a strong engagement rate.
func viralityScore(engagement, rate float64, sortedEngagements []float64) int {
	if len(sortedEngagements) == 0 {
		return 0
	}
	below := sort.SearchFloat64s(sortedEngagements, engagement)
	score := int(float64(below) / float64(len(sortedEngagements)) * 100)

	median := sortedEngagements[len(sortedEngagements)/2]
	if engagement > median && rate > viralityBoostRate {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func confidenceLabel(valR2 float64) string {
	switch {
	case valR2 >= confidenceHighR2:
		return model.ConfidenceHigh
	case valR2 >= confidenceMediumR2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func recommendationFor(virality int) string {
	switch {
	case virality >= 80:
		return "Strong performer predicted; prioritize this post and consider boosting it"
	case virality >= 60:
		return "Above-average engagement expected; good slot for this content"
	case virality >= 40:
		return "Average engagement expected; consider a stronger hook or different timing"
	default:
		return "Below-average engagement expected; rework the caption or save the idea for later"
	}
}

func pickRows(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func pickTargets(posts []model.PostRecord, idx []int, value func(*model.PostRecord) float64) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = value(&posts[j])
	}
	return out
}

func fittedR2(r *ml.Ridge, x [][]float64, y []float64) float64 {
	preds, err := r.PredictAll(x)
	if err != nil {
		return 0
	}
	return ml.RSquared(y, preds)
}
