package service

import (
	"fmt"
	"time"

	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/pkg/numeric"
)

// InsightService turns a client summary into plain-language findings using
// fixed heuristics. No model is involved, so it works from the first post.
type InsightService struct{}

func NewInsightService() *InsightService {
	return &InsightService{}
}

// QuickInsights builds an insight report from aggregate history stats.
func (s *InsightService) QuickInsights(summary model.ClientSummary) model.Insights {
	insights := model.Insights{
		KeyInsights:     []string{},
		Trends:          []string{},
		Recommendations: []string{},
		Warnings:        []string{},
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Source:          "rule_based",
	}

	if summary.TotalPosts == 0 {
		insights.KeyInsights = append(insights.KeyInsights, "No posts tracked yet")
		insights.Recommendations = append(insights.Recommendations,
			"Connect accounts and publish a few posts to start building a baseline")
		return insights
	}

	insights.KeyInsights = append(insights.KeyInsights,
		fmt.Sprintf("%d posts tracked, averaging %d likes and %d comments per post",
			summary.TotalPosts, numeric.SafeInt(summary.AvgLikes), numeric.SafeInt(summary.AvgComments)))

	if top := dominantPlatform(summary.Platforms); top != nil && len(summary.Platforms) > 1 {
		insights.KeyInsights = append(insights.KeyInsights,
			fmt.Sprintf("Most activity is on %s (%d of %d posts)", top.Platform, top.Posts, summary.TotalPosts))
	}

	if summary.AvgViews > 0 {
		rate := (summary.AvgLikes + summary.AvgComments) / summary.AvgViews
		switch {
		case rate >= 0.05:
			insights.KeyInsights = append(insights.KeyInsights,
				fmt.Sprintf("Engagement rate of %.1f%% is strong for this volume", rate*100))
		case rate < 0.01:
			insights.Warnings = append(insights.Warnings,
				fmt.Sprintf("Engagement rate of %.2f%% is low; most viewers are not interacting", rate*100))
			insights.Recommendations = append(insights.Recommendations,
				"Add a clear call to action and ask questions to prompt comments")
		}
	}

	if summary.AvgComments > 0 && summary.AvgLikes/summary.AvgComments > 50 {
		insights.Recommendations = append(insights.Recommendations,
			"Likes far outpace comments; prompt discussion to deepen audience connection")
	}

	insights.Trends = append(insights.Trends, trendFromPoints(summary.TrendPoints)...)

	if len(insights.Recommendations) == 0 {
		insights.Recommendations = append(insights.Recommendations,
			"Keep the current posting mix and review analytics weekly")
	}
	return insights
}

func dominantPlatform(platforms []model.PlatformCount) *model.PlatformCount {
	var top *model.PlatformCount
	for i := range platforms {
		if top == nil || platforms[i].Posts > top.Posts {
			top = &platforms[i]
		}
	}
	return top
}

// trendFromPoints compares the newest third of per-post engagement totals
// against the oldest third.
func trendFromPoints(points []float64) []string {
	if len(points) < 6 {
		return nil
	}
	third := len(points) / 3
	var oldSum, newSum float64
	for _, v := range points[:third] {
		oldSum += numeric.Finite(v)
	}
	for _, v := range points[len(points)-third:] {
		newSum += numeric.Finite(v)
	}
	change := numeric.PctChange(newSum/float64(third), oldSum/float64(third))

	switch {
	case change > 15:
		return []string{fmt.Sprintf("Engagement is trending up, %.0f%% higher than earlier posts", change)}
	case change < -15:
		return []string{fmt.Sprintf("Engagement is trending down, %.0f%% below earlier posts", -change)}
	default:
		return []string{"Engagement has been steady across recent posts"}
	}
}
