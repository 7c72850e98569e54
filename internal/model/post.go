package model

import "time"

// Supported social platforms.
const (
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
)

// ValidPlatforms is the set of platform identifiers accepted by the API.
var ValidPlatforms = map[string]bool{
	PlatformInstagram: true,
	PlatformYouTube:   true,
	PlatformTwitter:   true,
	PlatformFacebook:  true,
}

// PostRecord is one scraped post with its engagement metrics. Records are
// produced by the scraping/storage collaborator and are immutable once
// ingested; the analytics core only reads them.
type PostRecord struct {
	Platform   string    `json:"platform"`
	PostURL    string    `json:"postUrl,omitempty"`
	Caption    string    `json:"caption,omitempty"`
	UploadDate time.Time `json:"uploadDate"`
	Likes      float64   `json:"likes"`
	Comments   float64   `json:"comments"`
	Views      float64   `json:"views,omitempty"`
	Shares     float64   `json:"shares,omitempty"`
	Followers  float64   `json:"followers,omitempty"`
}

// Engagement returns likes + comments, the combined engagement total used
// throughout trend and virality calculations.
func (p *PostRecord) Engagement() float64 {
	return p.Likes + p.Comments
}

// EngagementRate returns (likes + comments) / max(views, 1). A post with no
// recorded views therefore reports its raw engagement total, never a
// division error.
func (p *PostRecord) EngagementRate() float64 {
	views := p.Views
	if views < 1 {
		views = 1
	}
	return (p.Likes + p.Comments) / views
}
