package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/sirupsen/logrus"
)

// taskFor snapshots a content item into a publish task.
func taskFor(item content.Item) Task {
	return Task{
		Kind:     TaskPublish,
		ItemID:   item.ID,
		UserID:   item.UserID,
		Body:     item.Body,
		ImageURL: item.ImageURL,
	}
}

// Poller is the fallback-mode sweeper: a fixed-interval tick that finds due
// items and runs the engine inline, one item at a time. Retries never block
// the tick; a failed attempt schedules its own deferred follow-up and the
// item stays in `publishing` until its chain resolves.
type Poller struct {
	repo       content.IContentRepository
	engine     *Engine
	interval   time.Duration
	staleAfter time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPoller(repo content.IContentRepository, engine *Engine, interval, staleAfter time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &Poller{
		repo:       repo,
		engine:     engine,
		interval:   interval,
		staleAfter: staleAfter,
		inflight:   make(map[string]struct{}),
	}
}

// Start blocks until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	logrus.Infof("[SCHEDULER] Fallback poller started (interval %s)", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one poll pass. Errors in one item's dispatch never abort the
// remaining items.
func (p *Poller) Tick(ctx context.Context) {
	now := time.Now().UTC()

	due, err := p.repo.ListDue(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Poll query failed")
	}
	for _, item := range due {
		p.Dispatch(ctx, taskFor(item), 0)
	}

	// Re-drive publishing items whose chain died with the process. Their
	// in-memory retry timers are lost on restart, so without this they
	// would sit in `publishing` forever.
	stale, err := p.repo.ListStalePublishing(ctx, now.Add(-p.staleAfter))
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Stale-publishing query failed")
		return
	}
	for _, item := range stale {
		logrus.Warnf("[SCHEDULER] Re-driving stale publishing item %s (stuck since %s)", item.ID, item.UpdatedAt)
		task := taskFor(item)
		task.Resume = true
		p.Dispatch(ctx, task, 0)
	}
}

// Dispatch runs an attempt chain for one item, at most one chain per item id
// within this process. The follow-up after a retryable failure is a deferred
// callback with the engine's backoff, not a blocking sleep.
func (p *Poller) Dispatch(ctx context.Context, task Task, attempt int) {
	p.mu.Lock()
	if _, busy := p.inflight[task.ItemID]; busy {
		p.mu.Unlock()
		return
	}
	p.inflight[task.ItemID] = struct{}{}
	p.mu.Unlock()

	p.runAttempt(ctx, task, attempt)
}

func (p *Poller) runAttempt(ctx context.Context, task Task, attempt int) {
	result := p.engine.Attempt(ctx, task, attempt)
	if result.Outcome == OutcomeRetry {
		time.AfterFunc(result.RetryAfter, func() {
			if ctx.Err() != nil {
				p.release(task.ItemID)
				return
			}
			p.runAttempt(ctx, task, attempt+1)
		})
		return
	}
	p.release(task.ItemID)
}

func (p *Poller) release(itemID string) {
	p.mu.Lock()
	delete(p.inflight, itemID)
	p.mu.Unlock()
}

// Producer is the distributed-mode sweeper: every interval it fans due and
// near-due items out into the dispatch queue with their exact remaining
// delay. The lookahead window is longer than the interval on purpose, so
// consecutive ticks overlap and no item can fall between them; the queue's
// dedup key absorbs the resulting double-discoveries.
type Producer struct {
	repo       content.IContentRepository
	queue      IQueue
	interval   time.Duration
	window     time.Duration
	staleAfter time.Duration
}

func NewProducer(repo content.IContentRepository, queue IQueue, interval, window, staleAfter time.Duration) *Producer {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if window <= interval {
		window = interval + time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &Producer{repo: repo, queue: queue, interval: interval, window: window, staleAfter: staleAfter}
}

// Start blocks until ctx is cancelled.
func (pr *Producer) Start(ctx context.Context) {
	logrus.Infof("[SCHEDULER] Producer sweep started (interval %s, window %s)", pr.interval, pr.window)
	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pr.Tick(ctx)
		}
	}
}

// Tick enqueues every scheduled item due inside the lookahead window.
func (pr *Producer) Tick(ctx context.Context) {
	now := time.Now().UTC()

	items, err := pr.repo.ListDueWithin(ctx, now.Add(pr.window))
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Sweep query failed")
		return
	}

	enqueued := 0
	for _, item := range items {
		delay := time.Duration(0)
		if item.ScheduledAt != nil {
			delay = time.Until(*item.ScheduledAt)
			if delay < 0 {
				delay = 0
			}
		}
		if err := pr.queue.Enqueue(ctx, PublishKey(item.ID), taskFor(item), delay); err != nil {
			logrus.WithError(err).Errorf("[SCHEDULER] Failed to enqueue item %s", item.ID)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		logrus.Infof("[SCHEDULER] Sweep enqueued %d items", enqueued)
	}

	// Publishing items whose queue entry is gone have no chain left to finish
	// them: a worker crash, an expired exec lock or a flushed queue strands
	// them. Re-enqueue as resume tasks; the dedup key makes this a no-op while
	// a live entry still owns the item.
	stale, err := pr.repo.ListStalePublishing(ctx, now.Add(-pr.staleAfter))
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Stale-publishing query failed")
		return
	}
	for _, item := range stale {
		logrus.Warnf("[SCHEDULER] Re-enqueueing stale publishing item %s (stuck since %s)", item.ID, item.UpdatedAt)
		task := taskFor(item)
		task.Resume = true
		if err := pr.queue.Enqueue(ctx, PublishKey(item.ID), task, 0); err != nil {
			logrus.WithError(err).Errorf("[SCHEDULER] Failed to enqueue item %s", item.ID)
		}
	}
}
