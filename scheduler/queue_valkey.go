package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linkpilot-ai/linkpilot/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

const execLockTTL = 90 * time.Second

// ValkeyQueue implements IQueue over a Valkey sorted set: members are dedup
// keys scored by their execute-at time, with per-key payload and attempt
// counters alongside. ZADD NX gives the dedup contract for free — a key stays
// in the set until its chain completes, so re-enqueueing it is a no-op.
type ValkeyQueue struct {
	vk          *valkey.Client
	name        string
	maxAttempts int
}

func NewValkeyQueue(vk *valkey.Client, name string, maxAttempts int) *ValkeyQueue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &ValkeyQueue{vk: vk, name: name, maxAttempts: maxAttempts}
}

func (q *ValkeyQueue) tasksKey() string {
	return q.vk.Key("queue", q.name, "tasks")
}

func (q *ValkeyQueue) payloadKey(key string) string {
	return q.vk.Key("queue", q.name, "payload", key)
}

func (q *ValkeyQueue) attemptsKey() string {
	return q.vk.Key("queue", q.name, "attempts")
}

// Enqueue registers a task to run after delay. Enqueuing a key that is
// already queued (or mid-execution) leaves the original instance untouched.
func (q *ValkeyQueue) Enqueue(ctx context.Context, key string, task Task, delay time.Duration) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", key, err)
	}
	if delay < 0 {
		delay = 0
	}
	score := float64(time.Now().Add(delay).Unix())

	inner := q.vk.Inner()
	// Payload first so a worker never sees a member without one. NX keeps the
	// original payload on duplicate enqueues.
	res := inner.Do(ctx, inner.B().Set().Key(q.payloadKey(key)).Value(string(payload)).Nx().Build())
	if err := res.Error(); err != nil && !valkey.IsNil(err) {
		return fmt.Errorf("enqueue %s: %w", key, err)
	}
	res = inner.Do(ctx, inner.B().Zadd().Key(q.tasksKey()).Nx().ScoreMember().ScoreMember(score, key).Build())
	if err := res.Error(); err != nil {
		return fmt.Errorf("enqueue %s: %w", key, err)
	}
	return nil
}

// Depth returns the number of keys currently queued or mid-chain.
func (q *ValkeyQueue) Depth(ctx context.Context) (int64, error) {
	inner := q.vk.Inner()
	return inner.Do(ctx, inner.B().Zcard().Key(q.tasksKey()).Build()).AsInt64()
}

// Start runs the worker loop until ctx is cancelled. The loop sleeps until
// the next due task (bounded by a safety ticker) instead of busy-polling.
func (q *ValkeyQueue) Start(ctx context.Context, h Handler) {
	logrus.Infof("[QUEUE] Worker started for queue %s", q.name)

	safetyTicker := time.NewTicker(30 * time.Second)
	defer safetyTicker.Stop()

	for {
		nextAt := q.execDue(ctx, h)

		sleep := 30 * time.Second
		if !nextAt.IsZero() {
			sleep = time.Until(nextAt)
			if sleep < 0 {
				sleep = time.Second
			}
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-safetyTicker.C:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// execDue runs every matured task once and returns the execute-at time of the
// next pending task, or zero when the queue is idle.
func (q *ValkeyQueue) execDue(ctx context.Context, h Handler) time.Time {
	inner := q.vk.Inner()
	now := float64(time.Now().Unix())

	res := inner.Do(ctx, inner.B().Zrangebyscore().Key(q.tasksKey()).Min("-inf").Max(fmt.Sprintf("%f", now)).Build())
	keys, err := res.AsStrSlice()
	if err != nil && !valkey.IsNil(err) {
		logrus.WithError(err).Errorf("[QUEUE] Failed to read due tasks for %s", q.name)
	}

	for _, key := range keys {
		// One active execution per dedup key, across all workers.
		if !q.vk.AcquireLock(ctx, "lock:exec:"+q.name+":"+key, execLockTTL) {
			continue
		}
		q.execOne(ctx, h, key)
		q.vk.ReleaseLock(ctx, "lock:exec:"+q.name+":"+key)
	}

	peek := inner.B().Zrangebyscore().Key(q.tasksKey()).Min("-inf").Max("+inf").Limit(0, 1).Build()
	members, _ := inner.Do(ctx, peek).AsStrSlice()
	if len(members) > 0 && members[0] != "" {
		score, err := inner.Do(ctx, inner.B().Zscore().Key(q.tasksKey()).Member(members[0]).Build()).AsFloat64()
		if err == nil {
			return time.Unix(int64(score), 0)
		}
	}
	return time.Time{}
}

func (q *ValkeyQueue) execOne(ctx context.Context, h Handler, key string) {
	inner := q.vk.Inner()

	raw, err := inner.Do(ctx, inner.B().Get().Key(q.payloadKey(key)).Build()).ToString()
	if err != nil {
		// Orphaned member; drop it to avoid a permanent loop.
		logrus.Warnf("[QUEUE] No payload for task %s, removing", key)
		q.discard(ctx, key)
		return
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		logrus.WithError(err).Errorf("[QUEUE] Corrupt payload for task %s, removing", key)
		q.discard(ctx, key)
		return
	}

	// Count the execution before running it. If the worker dies mid-handler,
	// the resumed execution enters at the next attempt number instead of
	// replaying attempt 0 against its own earlier claim.
	seq, err := inner.Do(ctx, inner.B().Hincrby().Key(q.attemptsKey()).Field(key).Increment(1).Build()).AsInt64()
	if err != nil {
		logrus.WithError(err).Errorf("[QUEUE] Attempt counter write failed for task %s", key)
		return
	}
	attempt := int(seq) - 1

	result := h(ctx, task, attempt)
	switch result.Outcome {
	case OutcomeRetry:
		if attempt+1 > q.maxAttempts {
			// The handler should have gone terminal already; this is the
			// queue-side bound against runaway chains.
			logrus.Errorf("[QUEUE] Task %s exceeded %d attempts, dropping", key, q.maxAttempts)
			q.discard(ctx, key)
			return
		}
		next := float64(time.Now().Add(result.RetryAfter).Unix())
		// XX: reschedule the existing member, never resurrect a completed one.
		_ = inner.Do(ctx, inner.B().Zadd().Key(q.tasksKey()).Xx().ScoreMember().ScoreMember(next, key).Build())
	case OutcomeTerminal:
		if result.Err != nil {
			logrus.WithError(result.Err).Errorf("[QUEUE] Task %s ended in terminal failure", key)
		}
		q.discard(ctx, key)
	default:
		q.discard(ctx, key)
	}
}

func (q *ValkeyQueue) discard(ctx context.Context, key string) {
	inner := q.vk.Inner()
	_ = inner.Do(ctx, inner.B().Zrem().Key(q.tasksKey()).Member(key).Build())
	_ = inner.Do(ctx, inner.B().Del().Key(q.payloadKey(key)).Build())
	_ = inner.Do(ctx, inner.B().Hdel().Key(q.attemptsKey()).Field(key).Build())
}
