// Package stats computes per-client engagement baselines from post history.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

// Baseline captures the central tendency and spread of a client's history.
// It is persisted inside the detector artifact and drives both the 3-sigma
// fallback rules and anomaly categorization.
type Baseline struct {
	AvgLikes    float64 `json:"avgLikes"`
	StdLikes    float64 `json:"stdLikes"`
	AvgComments float64 `json:"avgComments"`
	StdComments float64 `json:"stdComments"`
	AvgViews    float64 `json:"avgViews"`
	StdViews    float64 `json:"stdViews"`

	AvgEngagementRate float64 `json:"avgEngagementRate"`

	LikesP10 float64 `json:"likesP10"`
	LikesP25 float64 `json:"likesP25"`
	LikesP75 float64 `json:"likesP75"`
	LikesP90 float64 `json:"likesP90"`

	CommentsP10 float64 `json:"commentsP10"`
	CommentsP25 float64 `json:"commentsP25"`
	CommentsP75 float64 `json:"commentsP75"`
	CommentsP90 float64 `json:"commentsP90"`

	EngagementRateP10 float64 `json:"engagementRateP10"`
	EngagementRateP90 float64 `json:"engagementRateP90"`

	Samples int `json:"samples"`
}

// ComputeBaseline builds a Baseline from a post history. An empty history
// yields a zero baseline with Samples == 0.
func ComputeBaseline(posts []model.PostRecord) Baseline {
	b := Baseline{Samples: len(posts)}
	if len(posts) == 0 {
		return b
	}

	likes := make([]float64, len(posts))
	comments := make([]float64, len(posts))
	views := make([]float64, len(posts))
	rates := make([]float64, len(posts))
	for i := range posts {
		likes[i] = numeric.Finite(posts[i].Likes)
		comments[i] = numeric.Finite(posts[i].Comments)
		views[i] = numeric.Finite(posts[i].Views)
		rates[i] = numeric.Finite(posts[i].EngagementRate())
	}

	b.AvgLikes, b.StdLikes = meanStd(likes)
	b.AvgComments, b.StdComments = meanStd(comments)
	b.AvgViews, b.StdViews = meanStd(views)
	b.AvgEngagementRate, _ = meanStd(rates)

	sort.Float64s(likes)
	sort.Float64s(comments)
	sort.Float64s(rates)

	b.LikesP10 = quantile(0.10, likes)
	b.LikesP25 = quantile(0.25, likes)
	b.LikesP75 = quantile(0.75, likes)
	b.LikesP90 = quantile(0.90, likes)

	b.CommentsP10 = quantile(0.10, comments)
	b.CommentsP25 = quantile(0.25, comments)
	b.CommentsP75 = quantile(0.75, comments)
	b.CommentsP90 = quantile(0.90, comments)

	b.EngagementRateP10 = quantile(0.10, rates)
	b.EngagementRateP90 = quantile(0.90, rates)

	return b
}

// LikesZScore returns how many standard deviations a likes count sits from
// the baseline average. Zero spread yields zero.
func (b Baseline) LikesZScore(likes float64) float64 {
	return zscore(likes, b.AvgLikes, b.StdLikes)
}

// CommentsZScore returns the standard-deviation distance for a comment count.
func (b Baseline) CommentsZScore(comments float64) float64 {
	return zscore(comments, b.AvgComments, b.StdComments)
}

func zscore(v, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return numeric.Finite((v - mean) / std)
}

func meanStd(values []float64) (float64, float64) {
	mean, std := stat.MeanStdDev(values, nil)
	return numeric.Finite(mean), numeric.Finite(std)
}

// quantile expects values sorted ascending.
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return numeric.Finite(stat.Quantile(p, stat.Empirical, sorted, nil))
}
