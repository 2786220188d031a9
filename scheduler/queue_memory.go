package scheduler

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	task    Task
	runAt   time.Time
	attempt int
	running bool
}

// MemoryQueue is the in-process implementation of IQueue. It honors the same
// contract as the Valkey queue (dedup by key, per-key single execution,
// bounded requeue) over a mutex-guarded map, and is what unit tests and
// single-binary development runs use.
type MemoryQueue struct {
	mu          sync.Mutex
	entries     map[string]*memEntry
	maxAttempts int
}

func NewMemoryQueue(maxAttempts int) *MemoryQueue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &MemoryQueue{
		entries:     make(map[string]*memEntry),
		maxAttempts: maxAttempts,
	}
}

// Enqueue is a no-op when key is already queued or mid-execution.
func (q *MemoryQueue) Enqueue(_ context.Context, key string, task Task, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.entries[key]; exists {
		return nil
	}
	q.entries[key] = &memEntry{task: task, runAt: time.Now().Add(delay)}
	return nil
}

func (q *MemoryQueue) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.entries)), nil
}

// Start polls for due entries until ctx is cancelled.
func (q *MemoryQueue) Start(ctx context.Context, h Handler) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.RunDue(ctx, h, time.Now())
		}
	}
}

// RunDue executes every entry due at or before now. Exposed so tests can
// drive the queue deterministically without the polling goroutine.
func (q *MemoryQueue) RunDue(ctx context.Context, h Handler, now time.Time) {
	q.mu.Lock()
	var due []string
	for key, e := range q.entries {
		if !e.running && !e.runAt.After(now) {
			e.running = true
			due = append(due, key)
		}
	}
	q.mu.Unlock()

	for _, key := range due {
		// Executions are counted before the handler runs, mirroring the
		// Valkey queue's crash-visible attempt accounting.
		q.mu.Lock()
		e, ok := q.entries[key]
		var attempt int
		if ok {
			attempt = e.attempt
			e.attempt++
		}
		q.mu.Unlock()
		if !ok {
			continue
		}

		result := h(ctx, e.task, attempt)

		q.mu.Lock()
		switch result.Outcome {
		case OutcomeRetry:
			if attempt+1 > q.maxAttempts {
				delete(q.entries, key)
			} else {
				e.runAt = now.Add(result.RetryAfter)
				e.running = false
			}
		default:
			delete(q.entries, key)
		}
		q.mu.Unlock()
	}
}
