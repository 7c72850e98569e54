// Package repository provides read access to the scraped post feed. This
// service never writes posts; ingestion owns that table.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Werewolf05/Pulselytics/internal/model"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// ListByClient returns a client's posts oldest first. Scraper gaps come
// back as zeroes rather than failing the whole feed.
func (r *PostRepo) ListByClient(ctx context.Context, clientID string) ([]model.PostRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT platform, post_url, caption, posted_at,
		       likes, comments, views, shares, followers
		FROM posts
		WHERE client_id = $1
		ORDER BY posted_at ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.PostRecord
	for rows.Next() {
		var (
			p        model.PostRecord
			caption  sql.NullString
			postedAt sql.NullTime
			likes    sql.NullFloat64
			comments sql.NullFloat64
			views    sql.NullFloat64
			shares   sql.NullFloat64
			follows  sql.NullFloat64
		)
		if err := rows.Scan(&p.Platform, &p.PostURL, &caption, &postedAt,
			&likes, &comments, &views, &shares, &follows); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Caption = caption.String
		if postedAt.Valid {
			p.UploadDate = postedAt.Time
		}
		p.Likes = likes.Float64
		p.Comments = comments.Float64
		p.Views = views.Float64
		p.Shares = shares.Float64
		p.Followers = follows.Float64
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}
	return posts, nil
}

// Summary aggregates a client's history for the insight report.
func (r *PostRepo) Summary(ctx context.Context, clientID string) (model.ClientSummary, error) {
	var summary model.ClientSummary

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(likes), 0),
		       COALESCE(AVG(comments), 0),
		       COALESCE(AVG(views), 0)
		FROM posts
		WHERE client_id = $1`, clientID).
		Scan(&summary.TotalPosts, &summary.AvgLikes, &summary.AvgComments, &summary.AvgViews)
	if err != nil {
		return model.ClientSummary{}, fmt.Errorf("aggregate posts: %w", err)
	}
	if summary.TotalPosts == 0 {
		return summary, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT platform, COUNT(*)
		FROM posts
		WHERE client_id = $1
		GROUP BY platform
		ORDER BY COUNT(*) DESC`, clientID)
	if err != nil {
		return model.ClientSummary{}, fmt.Errorf("count platforms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc model.PlatformCount
		if err := rows.Scan(&pc.Platform, &pc.Posts); err != nil {
			return model.ClientSummary{}, fmt.Errorf("scan platform count: %w", err)
		}
		summary.Platforms = append(summary.Platforms, pc)
	}
	if err := rows.Err(); err != nil {
		return model.ClientSummary{}, fmt.Errorf("read platform counts: %w", err)
	}

	points, err := r.recentEngagement(ctx, clientID, 30)
	if err != nil {
		return model.ClientSummary{}, err
	}
	summary.TrendPoints = points
	return summary, nil
}

// recentEngagement returns per-post engagement totals for the newest limit
// posts, reordered oldest first.
func (r *PostRepo) recentEngagement(ctx context.Context, clientID string, limit int) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(likes, 0) + COALESCE(comments, 0)
		FROM (
			SELECT likes, comments, posted_at
			FROM posts
			WHERE client_id = $1
			ORDER BY posted_at DESC
			LIMIT $2
		) recent
		ORDER BY posted_at ASC`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent engagement: %w", err)
	}
	defer rows.Close()

	var points []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan engagement: %w", err)
		}
		points = append(points, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read engagement: %w", err)
	}
	return points, nil
}

// Healthy pings the pool within a short deadline for readiness checks.
func (r *PostRepo) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.pool.Ping(ctx)
}
