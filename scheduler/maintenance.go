package scheduler

import (
	"context"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/sirupsen/logrus"
)

const (
	historyRetention  = 7 * 24 * time.Hour
	purgeInterval     = 6 * time.Hour
	emailPurgePeriod  = time.Hour
	snapshotHourUTC   = 6
	snapshotTaskDelay = 2 * time.Minute
)

// ISnapshotter takes one analytics snapshot for a user.
type ISnapshotter interface {
	Snapshot(ctx context.Context, userID string) error
}

// IMaintenanceStore covers the retention purges. All operations are
// idempotent deletes.
type IMaintenanceStore interface {
	PurgeOldComments(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeOldReports(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeExpiredEmails(ctx context.Context, now time.Time) (int64, error)
}

// Maintenance owns the periodic jobs that ride alongside publish dispatch:
// the daily analytics snapshot fan-out and the retention purges. Each job
// runs on its own cadence and isolates its errors; none of them can block or
// break the dispatch path.
type Maintenance struct {
	users       user.IUserRepository
	snapshotter ISnapshotter
	store       IMaintenanceStore
	queue       IQueue // nil in fallback mode: snapshots run inline
}

func NewMaintenance(users user.IUserRepository, snapshotter ISnapshotter, store IMaintenanceStore, queue IQueue) *Maintenance {
	return &Maintenance{users: users, snapshotter: snapshotter, store: store, queue: queue}
}

// Start launches the three job loops and returns immediately.
func (m *Maintenance) Start(ctx context.Context) {
	go m.runDaily(ctx)
	go m.runEvery(ctx, purgeInterval, m.PurgeHistory)
	go m.runEvery(ctx, emailPurgePeriod, m.PurgeExpiredEmails)
}

func (m *Maintenance) runEvery(ctx context.Context, every time.Duration, job func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (m *Maintenance) runDaily(ctx context.Context) {
	for {
		timer := time.NewTimer(untilNextHourUTC(snapshotHourUTC, time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.SnapshotFanout(ctx)
		}
	}
}

// untilNextHourUTC returns the wait until the next occurrence of hour:00 UTC.
func untilNextHourUTC(hour int, now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// SnapshotFanout takes one analytics snapshot per connected user. In
// distributed mode users are fanned out as queue tasks deduped per user and
// day; in fallback mode snapshots run inline. A failure for one user never
// aborts the others.
func (m *Maintenance) SnapshotFanout(ctx context.Context) {
	users, err := m.users.ListConnected(ctx)
	if err != nil {
		logrus.WithError(err).Error("[MAINTENANCE] Snapshot fan-out query failed")
		return
	}

	today := time.Now().UTC()
	for _, u := range users {
		if m.queue != nil {
			task := Task{Kind: TaskSnapshot, UserID: u.ID}
			if err := m.queue.Enqueue(ctx, SnapshotKey(u.ID, today), task, 0); err != nil {
				logrus.WithError(err).Errorf("[MAINTENANCE] Failed to enqueue snapshot for user %s", u.ID)
			}
			continue
		}
		if err := m.snapshotter.Snapshot(ctx, u.ID); err != nil {
			logrus.WithError(err).Errorf("[MAINTENANCE] Snapshot failed for user %s", u.ID)
		}
	}
	logrus.Infof("[MAINTENANCE] Snapshot fan-out covered %d users", len(users))
}

// HandleSnapshot is the queue handler for fan-out snapshot tasks.
func (m *Maintenance) HandleSnapshot(ctx context.Context, task Task, attempt int) Result {
	if err := m.snapshotter.Snapshot(ctx, task.UserID); err != nil {
		if attempt >= 2 {
			logrus.WithError(err).Errorf("[MAINTENANCE] Snapshot for user %s gave up", task.UserID)
			return Terminal(err)
		}
		return Retry(snapshotTaskDelay, err)
	}
	return Success()
}

// PurgeHistory deletes terminal-state engagement comments and creator
// reports older than the retention window.
func (m *Maintenance) PurgeHistory(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-historyRetention)

	if n, err := m.store.PurgeOldComments(ctx, cutoff); err != nil {
		logrus.WithError(err).Error("[MAINTENANCE] Failed to purge auto comments")
	} else if n > 0 {
		logrus.Infof("[MAINTENANCE] Purged %d auto comments before %s", n, cutoff.Format(time.RFC3339))
	}

	if n, err := m.store.PurgeOldReports(ctx, cutoff); err != nil {
		logrus.WithError(err).Error("[MAINTENANCE] Failed to purge creator reports")
	} else if n > 0 {
		logrus.Infof("[MAINTENANCE] Purged %d creator reports before %s", n, cutoff.Format(time.RFC3339))
	}
}

// PurgeExpiredEmails deletes inbox emails whose per-record expiry has passed.
func (m *Maintenance) PurgeExpiredEmails(ctx context.Context) {
	now := time.Now().UTC()
	n, err := m.store.PurgeExpiredEmails(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[MAINTENANCE] Failed to purge expired emails")
		return
	}
	if n > 0 {
		logrus.Infof("[MAINTENANCE] Purged %d expired emails", n)
	}
}
