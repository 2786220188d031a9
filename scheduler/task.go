package scheduler

import (
	"context"
	"time"
)

// TaskKind routes a queued task to its handler.
type TaskKind string

const (
	TaskPublish  TaskKind = "publish"
	TaskSnapshot TaskKind = "snapshot"
)

// Task is the unit of work handed to the dispatch queue. For publish tasks it
// carries a snapshot of the content item at enqueue time.
type Task struct {
	Kind     TaskKind `json:"kind"`
	ItemID   string   `json:"item_id,omitempty"`
	UserID   string   `json:"user_id"`
	Body     string   `json:"body,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	// Resume marks a re-driven chain for an item already sitting in
	// `publishing`: its first execution must skip the claim step, which only
	// fires on `scheduled` rows.
	Resume bool `json:"resume,omitempty"`
}

// PublishKey returns the deterministic dedup key for a content item. Every
// scheduling path (immediate enqueue, sweep, manual retry) must use this same
// key so the queue can collapse duplicates.
func PublishKey(itemID string) string {
	return "publish-" + itemID
}

// SnapshotKey dedups the daily analytics fan-out per user and day.
func SnapshotKey(userID string, day time.Time) string {
	return "snapshot-" + userID + "-" + day.UTC().Format("2006-01-02")
}

// Outcome classifies one handler execution.
type Outcome int

const (
	// OutcomeSuccess also covers silent no-ops such as a lost claim race.
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeTerminal
)

// Result is what a task handler reports back to the retry driver.
type Result struct {
	Outcome    Outcome
	RetryAfter time.Duration
	Err        error
}

func Success() Result {
	return Result{Outcome: OutcomeSuccess}
}

func Retry(after time.Duration, err error) Result {
	return Result{Outcome: OutcomeRetry, RetryAfter: after, Err: err}
}

func Terminal(err error) Result {
	return Result{Outcome: OutcomeTerminal, Err: err}
}

// Handler executes one attempt of a task. attempt is 0-indexed and counts
// prior executions of the same dedup key.
type Handler func(ctx context.Context, task Task, attempt int) Result

// IQueue is the distributed delayed-task mechanism: at-least-once delivery,
// dedup by key (re-enqueueing an already-queued key is a no-op), per-key
// single active execution, requeue with the handler-provided backoff bounded
// by a max attempt count.
type IQueue interface {
	Enqueue(ctx context.Context, key string, task Task, delay time.Duration) error
	Start(ctx context.Context, h Handler)
	Depth(ctx context.Context) (int64, error)
}
