package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fanoutUsers struct {
	user.IUserRepository
	connected []user.User
}

func (u *fanoutUsers) ListConnected(_ context.Context) ([]user.User, error) {
	return u.connected, nil
}

type recordingSnapshotter struct {
	userIDs []string
	errFor  map[string]error
}

func (s *recordingSnapshotter) Snapshot(_ context.Context, userID string) error {
	s.userIDs = append(s.userIDs, userID)
	if s.errFor != nil {
		return s.errFor[userID]
	}
	return nil
}

type recordingStore struct {
	commentCutoffs []time.Time
	reportCutoffs  []time.Time
	emailPurges    int
}

func (s *recordingStore) PurgeOldComments(_ context.Context, cutoff time.Time) (int64, error) {
	s.commentCutoffs = append(s.commentCutoffs, cutoff)
	return 2, nil
}

func (s *recordingStore) PurgeOldReports(_ context.Context, cutoff time.Time) (int64, error) {
	s.reportCutoffs = append(s.reportCutoffs, cutoff)
	return 0, nil
}

func (s *recordingStore) PurgeExpiredEmails(_ context.Context, _ time.Time) (int64, error) {
	s.emailPurges++
	return 1, nil
}

func TestSnapshotFanoutInlineInFallbackMode(t *testing.T) {
	users := &fanoutUsers{connected: []user.User{
		{ID: "u1", UnipileAccountID: "a1"},
		{ID: "u2", UnipileAccountID: "a2"},
	}}
	snaps := &recordingSnapshotter{errFor: map[string]error{"u1": errors.New("api down")}}
	m := NewMaintenance(users, snaps, &recordingStore{}, nil)

	m.SnapshotFanout(context.Background())

	// One user failing never skips the rest.
	assert.Equal(t, []string{"u1", "u2"}, snaps.userIDs)
}

func TestSnapshotFanoutQueuesPerUserInDistributedMode(t *testing.T) {
	users := &fanoutUsers{connected: []user.User{
		{ID: "u1", UnipileAccountID: "a1"},
		{ID: "u2", UnipileAccountID: "a2"},
	}}
	snaps := &recordingSnapshotter{}
	q := NewMemoryQueue(3)
	m := NewMaintenance(users, snaps, &recordingStore{}, q)

	m.SnapshotFanout(context.Background())
	// A second fan-out the same day collapses onto the same per-user keys.
	m.SnapshotFanout(context.Background())

	assert.Empty(t, snaps.userIDs, "distributed mode defers to the queue")
	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

func TestHandleSnapshotRetriesThenGivesUp(t *testing.T) {
	snaps := &recordingSnapshotter{errFor: map[string]error{"u1": errors.New("flaky")}}
	m := NewMaintenance(&fanoutUsers{}, snaps, &recordingStore{}, nil)

	task := Task{Kind: TaskSnapshot, UserID: "u1"}

	res := m.HandleSnapshot(context.Background(), task, 0)
	assert.Equal(t, OutcomeRetry, res.Outcome)

	res = m.HandleSnapshot(context.Background(), task, 1)
	assert.Equal(t, OutcomeRetry, res.Outcome)

	res = m.HandleSnapshot(context.Background(), task, 2)
	assert.Equal(t, OutcomeTerminal, res.Outcome)
}

func TestHandleSnapshotSuccess(t *testing.T) {
	snaps := &recordingSnapshotter{}
	m := NewMaintenance(&fanoutUsers{}, snaps, &recordingStore{}, nil)

	res := m.HandleSnapshot(context.Background(), Task{Kind: TaskSnapshot, UserID: "u2"}, 0)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"u2"}, snaps.userIDs)
}

func TestPurgeHistoryUsesRetentionCutoff(t *testing.T) {
	store := &recordingStore{}
	m := NewMaintenance(&fanoutUsers{}, &recordingSnapshotter{}, store, nil)

	before := time.Now().UTC().Add(-historyRetention)
	m.PurgeHistory(context.Background())
	after := time.Now().UTC().Add(-historyRetention)

	require.Len(t, store.commentCutoffs, 1)
	require.Len(t, store.reportCutoffs, 1)
	cutoff := store.commentCutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}

func TestPurgeExpiredEmails(t *testing.T) {
	store := &recordingStore{}
	m := NewMaintenance(&fanoutUsers{}, &recordingSnapshotter{}, store, nil)

	m.PurgeExpiredEmails(context.Background())

	assert.Equal(t, 1, store.emailPurges)
}
