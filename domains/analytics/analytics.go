package analytics

import (
	"context"
	"time"
)

// Snapshot is one follower-count observation for a user on a given day.
// Re-running the snapshot job on the same day overwrites the row instead of
// appending a duplicate.
type Snapshot struct {
	ID            string
	UserID        string
	Date          string // YYYY-MM-DD, UTC
	FollowerCount int
	CreatedAt     time.Time
}

// PostMetrics holds per-day engagement counters for a published post,
// keyed by the external (LinkedIn) post id.
type PostMetrics struct {
	ID             string
	UserID         string
	ExternalPostID string
	Date           string // YYYY-MM-DD, UTC
	Impressions    int
	Likes          int
	Comments       int
	Shares         int
	CreatedAt      time.Time
}

// IAnalyticsUsecase takes daily snapshots and serves history queries.
type IAnalyticsUsecase interface {
	Snapshot(ctx context.Context, userID string) error
	FollowerHistory(ctx context.Context, userID string, days int) ([]Snapshot, error)
	PostHistory(ctx context.Context, userID string, days int) ([]PostMetrics, error)
}

type IAnalyticsRepository interface {
	Init(ctx context.Context) error
	UpsertSnapshot(ctx context.Context, s Snapshot) error
	UpsertPostMetrics(ctx context.Context, m PostMetrics) error
	ListSnapshots(ctx context.Context, userID string, since time.Time) ([]Snapshot, error)
	ListPostMetrics(ctx context.Context, userID string, since time.Time) ([]PostMetrics, error)
}
