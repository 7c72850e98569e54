package service

import (
	"fmt"
	"sort"

	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

const (
	dropHighPct   = -50.0
	dropMediumPct = -30.0

	// Minimum history before posting-time grouping beats platform defaults.
	minPostsForTiming = 10
)

// TrendService analyzes engagement trajectories over a client's recent
// posts. Histories are expected oldest first.
type TrendService struct {
	window       int
	thresholdPct float64
	dropWindow   int
}

func NewTrendService(window int, thresholdPct float64, dropWindow int) *TrendService {
	if window < 2 {
		window = 2
	}
	if dropWindow < 2 {
		dropWindow = 2
	}
	return &TrendService{window: window, thresholdPct: thresholdPct, dropWindow: dropWindow}
}

// DetectTrends compares the most recent window of posts against the window
// before it and classifies the trajectory.
func (s *TrendService) DetectTrends(posts []model.PostRecord) model.TrendSummary {
	if len(posts) < 2*s.window {
		return model.TrendSummary{
			Status: model.StatusInsufficientData,
			Window: s.window,
		}
	}

	recent := posts[len(posts)-s.window:]
	prior := posts[len(posts)-2*s.window : len(posts)-s.window]

	recentLikes, recentComments := avgLikesComments(recent)
	priorLikes, priorComments := avgLikesComments(prior)

	summary := model.TrendSummary{
		Status:            model.StatusOK,
		LikesChangePct:    numeric.RoundTo(numeric.PctChange(recentLikes, priorLikes), 1),
		CommentsChangePct: numeric.RoundTo(numeric.PctChange(recentComments, priorComments), 1),
		RecentAvgLikes:    numeric.SafeInt(recentLikes),
		RecentAvgComments: numeric.SafeInt(recentComments),
		Window:            s.window,
	}

	switch {
	case summary.LikesChangePct > s.thresholdPct:
		summary.Trend = model.TrendGrowing
		summary.Recommendation = "Recent content is outperforming; keep the current format and cadence"
	case summary.LikesChangePct < -s.thresholdPct:
		summary.Trend = model.TrendDeclining
		summary.Alert = fmt.Sprintf("Likes are down %.1f%% over the last %d posts", -summary.LikesChangePct, s.window)
		summary.Recommendation = "Review what changed in recent posts: format, timing, or topic"
	default:
		summary.Trend = model.TrendStable
	}
	return summary
}

// DetectEngagementDrop checks whether combined engagement fell below the
// given threshold fraction between the two most recent windows.
func (s *TrendService) DetectEngagementDrop(posts []model.PostRecord, threshold float64) model.DropReport {
	if len(posts) < 2*s.dropWindow {
		return model.DropReport{Status: model.StatusInsufficientData}
	}
	if threshold <= 0 {
		threshold = 0.3
	}

	recent := posts[len(posts)-s.dropWindow:]
	previous := posts[len(posts)-2*s.dropWindow : len(posts)-s.dropWindow]

	recentAvg := avgEngagement(recent)
	previousAvg := avgEngagement(previous)
	changePct := numeric.RoundTo(numeric.PctChange(recentAvg, previousAvg), 1)

	report := model.DropReport{
		Status:                model.StatusOK,
		ChangePct:             changePct,
		RecentAvgEngagement:   numeric.SafeInt(recentAvg),
		PreviousAvgEngagement: numeric.SafeInt(previousAvg),
	}
	if changePct >= -threshold*100 {
		return report
	}

	report.DropDetected = true
	switch {
	case changePct < dropHighPct:
		report.Severity = model.SeverityHigh
	case changePct < dropMediumPct:
		report.Severity = model.SeverityMedium
	default:
		report.Severity = model.SeverityLow
	}
	report.AlertMessage = fmt.Sprintf("Engagement dropped %.1f%% over the last %d posts", -changePct, s.dropWindow)
	report.PossibleCauses = []string{
		"Posting schedule changed",
		"Content format shifted away from what the audience responds to",
		"Platform algorithm or reach changes",
		"Audience fatigue from repetitive topics",
	}
	return report
}

// OptimalPostingTimes ranks posting hours and weekdays by a comment-weighted
// engagement score. Thin histories fall back to platform defaults.
func (s *TrendService) OptimalPostingTimes(posts []model.PostRecord, platform string) model.OptimalTimeReport {
	if len(posts) < minPostsForTiming {
		report := defaultPostingTimes(platform)
		report.Note = fmt.Sprintf("Based on platform defaults; only %d posts available", len(posts))
		return report
	}

	hourScores := map[int]float64{}
	hourCounts := map[int]int{}
	dayScores := map[int]float64{}
	dayCounts := map[int]int{}
	for i := range posts {
		p := &posts[i]
		if p.UploadDate.IsZero() {
			continue
		}
		// Comments weigh triple: replies signal a reached, responsive audience.
		score := numeric.Finite(p.Likes) + 3*numeric.Finite(p.Comments)
		h := p.UploadDate.Hour()
		d := int(p.UploadDate.Weekday())
		hourScores[h] += score
		hourCounts[h]++
		dayScores[d] += score
		dayCounts[d]++
	}
	if len(hourCounts) == 0 {
		report := defaultPostingTimes(platform)
		report.Note = "Posts carry no timestamps; using platform defaults"
		return report
	}

	bestHours := topKeys(hourScores, hourCounts, 3)
	bestDays := topKeys(dayScores, dayCounts, 2)

	report := model.OptimalTimeReport{
		Confidence: model.ConfidenceMedium,
	}
	if len(posts) >= 50 {
		report.Confidence = model.ConfidenceHigh
	}
	for _, h := range bestHours {
		report.BestHours = append(report.BestHours, fmt.Sprintf("%02d:00", h))
	}
	for _, d := range bestDays {
		report.BestDays = append(report.BestDays, weekdayName(d))
	}
	report.Recommendation = fmt.Sprintf("Post around %s on %s for the strongest response",
		report.BestHours[0], joinDays(report.BestDays))
	return report
}

func avgLikesComments(posts []model.PostRecord) (float64, float64) {
	var likes, comments float64
	for i := range posts {
		likes += numeric.Finite(posts[i].Likes)
		comments += numeric.Finite(posts[i].Comments)
	}
	n := float64(len(posts))
	return likes / n, comments / n
}

func avgEngagement(posts []model.PostRecord) float64 {
	var total float64
	for i := range posts {
		total += numeric.Finite(posts[i].Engagement())
	}
	return total / float64(len(posts))
}

// topKeys returns up to k keys ranked by average score, best first.
func topKeys(scores map[int]float64, counts map[int]int, k int) []int {
	keys := make([]int, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a := scores[keys[i]] / float64(counts[keys[i]])
		b := scores[keys[j]] / float64(counts[keys[j]])
		if a != b {
			return a > b
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func defaultPostingTimes(platform string) model.OptimalTimeReport {
	report := model.OptimalTimeReport{
		BestHours:  []string{"12:00", "18:00", "20:00"},
		BestDays:   []string{"Wednesday", "Friday"},
		Confidence: model.ConfidenceLow,
	}
	switch platform {
	case model.PlatformInstagram:
		report.BestHours = []string{"11:00", "14:00", "19:00"}
		report.BestDays = []string{"Tuesday", "Thursday"}
	case model.PlatformYouTube:
		report.BestHours = []string{"15:00", "17:00", "20:00"}
		report.BestDays = []string{"Saturday", "Sunday"}
	case model.PlatformTwitter:
		report.BestHours = []string{"09:00", "12:00", "17:00"}
		report.BestDays = []string{"Monday", "Wednesday"}
	case model.PlatformFacebook:
		report.BestHours = []string{"13:00", "15:00", "19:00"}
		report.BestDays = []string{"Thursday", "Friday"}
	}
	report.Recommendation = fmt.Sprintf("Post around %s on %s for the strongest response",
		report.BestHours[0], joinDays(report.BestDays))
	return report
}

func weekdayName(d int) string {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if d < 0 || d >= len(names) {
		return "Unknown"
	}
	return names[d]
}

func joinDays(days []string) string {
	switch len(days) {
	case 0:
		return "any day"
	case 1:
		return days[0]
	default:
		return days[0] + " or " + days[1]
	}
}
