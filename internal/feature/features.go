// Package feature turns raw post records into the fixed numeric matrices
// consumed by the anomaly detector and the engagement predictor. All outputs
// are finite: missing or garbage source values are coerced to zero before any
// feature computation.
package feature

import (
	"sort"
	"strings"

	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

// Detection feature column order. Alignment between training and scoring
// depends on this order staying fixed.
var DetectionColumns = []string{
	"likes",
	"comments",
	"views",
	"engagement_rate",
	"responsiveness_index",
	"peak_performance",
}

// defaultFollowers stands in when the scraper did not capture a follower
// count, so the responsiveness index stays comparable across posts.
const defaultFollowers = 1000.0

// DetectionMatrix builds the anomaly-detection feature matrix, one row per
// post in input order. Columns follow DetectionColumns.
func DetectionMatrix(posts []model.PostRecord) [][]float64 {
	if len(posts) == 0 {
		return nil
	}

	// Peak performance compares each post to the best post in the set.
	var maxEngagement float64
	for i := range posts {
		if e := numeric.Finite(posts[i].Engagement()); e > maxEngagement {
			maxEngagement = e
		}
	}

	rows := make([][]float64, 0, len(posts))
	for i := range posts {
		p := &posts[i]

		followers := numeric.Finite(p.Followers)
		if followers <= 0 {
			followers = defaultFollowers
		}
		responsiveness := (numeric.Finite(p.Comments) + numeric.Finite(p.Shares)) / followers * 10000

		peak := 0.0
		if maxEngagement > 0 {
			peak = numeric.Finite(p.Engagement()) / maxEngagement * 100
		}

		rows = append(rows, []float64{
			numeric.Finite(p.Likes),
			numeric.Finite(p.Comments),
			numeric.Finite(p.Views),
			numeric.Finite(p.EngagementRate()),
			numeric.Finite(responsiveness),
			numeric.Finite(peak),
		})
	}
	return rows
}

// PredictionRow builds the prediction-time feature map for a single post.
// Engagement metrics are deliberately absent: at prediction time the
// candidate post has none, and training uses the same schema so the model
// never leaks its own targets.
func PredictionRow(p *model.PostRecord) map[string]float64 {
	caption := p.Caption

	row := map[string]float64{
		"hour_of_day":     float64(p.UploadDate.Hour()),
		"day_of_week":     float64(int(p.UploadDate.Weekday())),
		"is_weekend":      0,
		"month":           float64(int(p.UploadDate.Month())),
		"caption_length":  float64(len(caption)),
		"word_count":      float64(len(strings.Fields(caption))),
		"hashtag_count":   float64(strings.Count(caption, "#")),
		"mention_count":   float64(strings.Count(caption, "@")),
		"emoji_count":     float64(emojiCount(caption)),
		"has_question":    boolFeature(strings.Contains(caption, "?")),
		"has_exclamation": boolFeature(strings.Contains(caption, "!")),
		"has_url":         boolFeature(strings.Contains(caption, "http")),

		// Placeholder baseline engagement, kept for schema compatibility
		// with historical artifacts.
		"avg_engagement_rate": 0.05,
	}

	wd := p.UploadDate.Weekday()
	if wd == 0 || wd == 6 { // Sunday or Saturday
		row["is_weekend"] = 1
	}

	platform := p.Platform
	if !model.ValidPlatforms[platform] {
		platform = "unknown"
	}
	row["platform_"+platform] = 1

	for k, v := range row {
		row[k] = numeric.Finite(v)
	}
	return row
}

// PredictionMatrix builds the prediction feature matrix for a post history
// and returns it along with the column order used, for alignment at
// prediction time. Columns are the union of all per-row features, sorted
// deterministically.
func PredictionMatrix(posts []model.PostRecord) ([][]float64, []string) {
	if len(posts) == 0 {
		return nil, nil
	}

	maps := make([]map[string]float64, 0, len(posts))
	seen := map[string]bool{}
	var columns []string
	for i := range posts {
		row := PredictionRow(&posts[i])
		maps = append(maps, row)
		for k := range row {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]float64, len(maps))
	for i, m := range maps {
		rows[i] = AlignRow(m, columns)
	}
	return rows, columns
}

// AlignRow projects a feature map onto a reference column order. Missing
// features become 0; extraneous features are dropped.
func AlignRow(features map[string]float64, columns []string) []float64 {
	row := make([]float64, len(columns))
	for i, c := range columns {
		row[i] = numeric.Finite(features[c])
	}
	return row
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// emojiCount counts runes in the main emoji blocks.
func emojiCount(s string) int {
	n := 0
	for _, r := range s {
		if r > 0x1F300 && r < 0x1F9FF {
			n++
		}
	}
	return n
}
