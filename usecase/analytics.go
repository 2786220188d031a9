package usecase

import (
	"context"
	"fmt"
	"time"

	domainAnalytics "github.com/linkpilot-ai/linkpilot/domains/analytics"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/integrations/unipile"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/sirupsen/logrus"
)

const snapshotPostLimit = 30

type analyticsService struct {
	repo    domainAnalytics.IAnalyticsRepository
	users   user.IUserRepository
	unipile *unipile.Client
}

func NewAnalyticsService(repo domainAnalytics.IAnalyticsRepository, users user.IUserRepository, up *unipile.Client) domainAnalytics.IAnalyticsUsecase {
	return &analyticsService{repo: repo, users: users, unipile: up}
}

// Snapshot records today's follower count and per-post engagement counters
// for one user. Re-running on the same day overwrites today's rows. This is
// the target of the daily maintenance fan-out.
func (s *analyticsService) Snapshot(ctx context.Context, userID string) error {
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !owner.Connected() {
		return pkgError.ValidationError("user has no connected LinkedIn account.")
	}

	today := time.Now().UTC().Format("2006-01-02")

	followers, err := s.unipile.FollowerCount(ctx, owner.UnipileAccountID)
	if err != nil {
		return fmt.Errorf("follower snapshot failed: %w", err)
	}
	err = s.repo.UpsertSnapshot(ctx, domainAnalytics.Snapshot{
		UserID:        userID,
		Date:          today,
		FollowerCount: followers,
	})
	if err != nil {
		return err
	}

	posts, err := s.unipile.UserPosts(ctx, owner.UnipileAccountID, snapshotPostLimit)
	if err != nil {
		// Follower count already landed; post metrics catch up tomorrow.
		logrus.WithError(err).Warnf("[ANALYTICS] Post metrics fetch failed for user %s", userID)
		return nil
	}

	tracked := 0
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		err := s.repo.UpsertPostMetrics(ctx, domainAnalytics.PostMetrics{
			UserID:         userID,
			ExternalPostID: post.ID,
			Date:           today,
			Impressions:    post.Impressions,
			Likes:          post.Reactions,
			Comments:       post.Comments,
			Shares:         post.Reposts,
		})
		if err != nil {
			logrus.WithError(err).Warnf("[ANALYTICS] Failed to store metrics for post %s", post.ID)
			continue
		}
		tracked++
	}

	logrus.Infof("[ANALYTICS] Snapshot for user %s: %d followers, %d posts tracked", userID, followers, tracked)
	return nil
}

func (s *analyticsService) FollowerHistory(ctx context.Context, userID string, days int) ([]domainAnalytics.Snapshot, error) {
	return s.repo.ListSnapshots(ctx, userID, since(days))
}

func (s *analyticsService) PostHistory(ctx context.Context, userID string, days int) ([]domainAnalytics.PostMetrics, error) {
	return s.repo.ListPostMetrics(ctx, userID, since(days))
}

func since(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}
