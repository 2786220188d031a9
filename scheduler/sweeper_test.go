package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepRepo struct {
	*stubRepo
	due       []content.Item
	dueWithin []content.Item
	stale     []content.Item
}

func newSweepRepo() *sweepRepo {
	return &sweepRepo{stubRepo: &stubRepo{claimResult: true}}
}

func (r *sweepRepo) ListDue(_ context.Context, _ time.Time) ([]content.Item, error) {
	return r.due, nil
}

func (r *sweepRepo) ListDueWithin(_ context.Context, _ time.Time) ([]content.Item, error) {
	return r.dueWithin, nil
}

func (r *sweepRepo) ListStalePublishing(_ context.Context, _ time.Time) ([]content.Item, error) {
	return r.stale, nil
}

func TestPollerTickDispatchesDueItems(t *testing.T) {
	repo := newSweepRepo()
	repo.due = []content.Item{
		{ID: "a", UserID: "u1", Body: "first", Status: content.StatusScheduled},
		{ID: "b", UserID: "u1", Body: "second", Status: content.StatusScheduled},
	}
	pub := &stubPublisher{}
	engine := NewEngine(repo, connectedUsers(), pub, nil, 3, time.Minute)
	poller := NewPoller(repo, engine, time.Minute, 15*time.Minute)

	poller.Tick(context.Background())

	assert.Equal(t, 2, pub.calls)
	assert.ElementsMatch(t, []string{"a", "b"}, repo.published)
}

func TestPollerTickRedrivesStalePublishing(t *testing.T) {
	repo := newSweepRepo()
	repo.claimResult = false // a re-run claim would lose, stale re-drive must skip it
	repo.stale = []content.Item{
		{ID: "stuck", UserID: "u1", Body: "orphaned", Status: content.StatusPublishing},
	}
	pub := &stubPublisher{}
	engine := NewEngine(repo, connectedUsers(), pub, nil, 3, time.Minute)
	poller := NewPoller(repo, engine, time.Minute, 15*time.Minute)

	poller.Tick(context.Background())

	assert.Equal(t, 1, pub.calls, "stale item re-driven without a claim")
	assert.Zero(t, repo.claims)
	assert.Equal(t, []string{"stuck"}, repo.published)
}

func TestPollerDispatchSkipsInflightItem(t *testing.T) {
	repo := newSweepRepo()
	pub := &stubPublisher{}
	engine := NewEngine(repo, connectedUsers(), pub, nil, 3, time.Minute)
	poller := NewPoller(repo, engine, time.Minute, 15*time.Minute)

	task := Task{Kind: TaskPublish, ItemID: "a", UserID: "u1", Body: "x"}
	poller.inflight["a"] = struct{}{}

	poller.Dispatch(context.Background(), task, 0)
	assert.Zero(t, pub.calls, "an item with an active chain is not re-dispatched")

	poller.release("a")
	poller.Dispatch(context.Background(), task, 0)
	assert.Equal(t, 1, pub.calls)
}

func TestProducerTickEnqueuesWindowWithDelay(t *testing.T) {
	future := time.Now().Add(90 * time.Second).UTC()
	past := time.Now().Add(-time.Minute).UTC()

	repo := newSweepRepo()
	repo.dueWithin = []content.Item{
		{ID: "overdue", UserID: "u1", Body: "x", ScheduledAt: &past},
		{ID: "upcoming", UserID: "u1", Body: "y", ScheduledAt: &future},
	}
	q := NewMemoryQueue(3)
	producer := NewProducer(repo, q, 2*time.Minute, 3*time.Minute, 15*time.Minute)

	producer.Tick(context.Background())

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)

	// Only the overdue item is runnable right away; the upcoming one carries
	// its remaining delay.
	ran := []string{}
	q.RunDue(context.Background(), func(_ context.Context, task Task, _ int) Result {
		ran = append(ran, task.ItemID)
		return Success()
	}, time.Now())
	assert.Equal(t, []string{"overdue"}, ran)
}

func TestProducerOverlappingTicksDedup(t *testing.T) {
	at := time.Now().Add(time.Minute).UTC()
	repo := newSweepRepo()
	repo.dueWithin = []content.Item{
		{ID: "once", UserID: "u1", Body: "x", ScheduledAt: &at},
	}
	q := NewMemoryQueue(3)
	producer := NewProducer(repo, q, 2*time.Minute, 3*time.Minute, 15*time.Minute)

	// The lookahead window exceeds the interval, so back-to-back sweeps see
	// the same item. The dedup key must collapse them.
	producer.Tick(context.Background())
	producer.Tick(context.Background())

	depth, _ := q.Depth(context.Background())
	assert.Equal(t, int64(1), depth)
}

func TestNewProducerWidensShortWindow(t *testing.T) {
	producer := NewProducer(newSweepRepo(), NewMemoryQueue(3), 2*time.Minute, time.Minute, 15*time.Minute)
	assert.Greater(t, producer.window, producer.interval)
}

func TestProducerTickReenqueuesStalePublishing(t *testing.T) {
	// An item stuck in `publishing` with no queue entry left (worker crash,
	// flushed queue) must be re-enqueued and finish without a claim.
	repo := newSweepRepo()
	repo.claimResult = false
	repo.stale = []content.Item{
		{ID: "stuck", UserID: "u1", Body: "orphaned", Status: content.StatusPublishing},
	}
	pub := &stubPublisher{}
	engine := NewEngine(repo, connectedUsers(), pub, nil, 3, time.Minute)

	q := NewMemoryQueue(3)
	producer := NewProducer(repo, q, 2*time.Minute, 3*time.Minute, 15*time.Minute)

	producer.Tick(context.Background())
	q.RunDue(context.Background(), engine.Attempt, time.Now())

	assert.Equal(t, 1, pub.calls)
	assert.Zero(t, repo.claims, "re-driven item is already claimed")
	assert.Equal(t, []string{"stuck"}, repo.published)

	depth, _ := q.Depth(context.Background())
	assert.Zero(t, depth)
}

func TestProducerStaleReenqueueDedupsAgainstLiveChain(t *testing.T) {
	repo := newSweepRepo()
	repo.stale = []content.Item{
		{ID: "busy", UserID: "u1", Body: "mid-chain", Status: content.StatusPublishing},
	}
	q := NewMemoryQueue(3)
	producer := NewProducer(repo, q, 2*time.Minute, 3*time.Minute, 15*time.Minute)

	// A live retry chain still holds the dedup key; the stale sweep must not
	// start a second chain next to it.
	require.NoError(t, q.Enqueue(context.Background(), PublishKey("busy"), Task{Kind: TaskPublish, ItemID: "busy", UserID: "u1"}, time.Hour))
	producer.Tick(context.Background())

	depth, _ := q.Depth(context.Background())
	assert.Equal(t, int64(1), depth)
}
