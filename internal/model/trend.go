package model

// Result statuses shared by trend, drop, training, and prediction responses.
const (
	StatusOK               = "ok"
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
)

// Trend trajectory classifications.
const (
	TrendGrowing   = "growing"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TrendSummary is the result of a rolling-window trend analysis.
type TrendSummary struct {
	Status            string  `json:"status"`
	Trend             string  `json:"trend,omitempty"`
	LikesChangePct    float64 `json:"likesChangePct"`
	CommentsChangePct float64 `json:"commentsChangePct"`
	RecentAvgLikes    int     `json:"recentAvgLikes"`
	RecentAvgComments int     `json:"recentAvgComments"`
	Window            int     `json:"window"`
	Alert             string  `json:"alert,omitempty"`
	Recommendation    string  `json:"recommendation,omitempty"`
}

// DropReport is the result of a recent-vs-prior engagement drop check.
type DropReport struct {
	Status                string   `json:"status"`
	DropDetected          bool     `json:"dropDetected"`
	ChangePct             float64  `json:"changePct"`
	RecentAvgEngagement   int      `json:"recentAvgEngagement"`
	PreviousAvgEngagement int      `json:"previousAvgEngagement"`
	Severity              string   `json:"severity,omitempty"`
	AlertMessage          string   `json:"alertMessage,omitempty"`
	PossibleCauses        []string `json:"possibleCauses,omitempty"`
}

// OptimalTimeReport recommends posting hours and weekdays for a platform.
type OptimalTimeReport struct {
	BestHours      []string `json:"bestHours"`
	BestDays       []string `json:"bestDays"`
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
	Note           string   `json:"note,omitempty"`
}

// ClientSummary aggregates a client's history for insight generation.
type ClientSummary struct {
	TotalPosts  int             `json:"totalPosts"`
	AvgLikes    float64         `json:"avgLikes"`
	AvgComments float64         `json:"avgComments"`
	AvgViews    float64         `json:"avgViews"`
	Platforms   []PlatformCount `json:"platforms"`
	TrendPoints []float64       `json:"trendPoints,omitempty"` // per-post engagement totals, oldest first
}

// PlatformCount is the post count for one platform.
type PlatformCount struct {
	Platform string `json:"platform"`
	Posts    int    `json:"posts"`
}

// Insights is the rule-based insight report for a client.
type Insights struct {
	KeyInsights     []string `json:"keyInsights"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
	GeneratedAt     string   `json:"generatedAt"`
	Source          string   `json:"source"`
}
