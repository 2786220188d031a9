// Package taskmonitor tracks asynchronous background jobs (generation,
// engagement, research) per owner, in memory, with a bounded history ring.
package taskmonitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"` // generate | comment | research
	Status    Status    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusError
}

// Monitor keeps at most `size` jobs per user. When the ring is full the
// oldest job is evicted regardless of its state.
type Monitor struct {
	mu    sync.Mutex
	size  int
	byID  map[string]*Job
	order map[string][]string // userID -> job ids, oldest first
}

func New(size int) *Monitor {
	if size <= 0 {
		size = 50
	}
	return &Monitor{
		size:  size,
		byID:  make(map[string]*Job),
		order: make(map[string][]string),
	}
}

// Create registers a new pending job and returns its id.
func (m *Monitor) Create(userID, kind string) string {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.order[userID]
	if len(ids) >= m.size {
		evicted := ids[0]
		ids = ids[1:]
		delete(m.byID, evicted)
	}
	m.order[userID] = append(ids, job.ID)
	m.byID[job.ID] = job
	return job.ID
}

func (m *Monitor) SetRunning(id string) {
	m.update(id, func(j *Job) { j.Status = StatusRunning })
}

func (m *Monitor) SetDone(id, result string) {
	m.update(id, func(j *Job) {
		j.Status = StatusDone
		j.Result = result
	})
}

func (m *Monitor) SetError(id string, err error) {
	m.update(id, func(j *Job) {
		j.Status = StatusError
		if err != nil {
			j.Error = err.Error()
		}
	})
}

func (m *Monitor) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byID[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

// Get returns a copy of the job, if still retained.
func (m *Monitor) Get(id string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byID[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ListByUser returns the user's retained jobs, newest first.
func (m *Monitor) ListByUser(userID string) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.order[userID]
	jobs := make([]Job, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if job, ok := m.byID[ids[i]]; ok {
			jobs = append(jobs, *job)
		}
	}
	return jobs
}

// DrainCompleted returns terminal jobs the caller has not yet been notified
// about and marks them notified, so each completion is reported once.
func (m *Monitor) DrainCompleted(userID string) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	var completed []Job
	for _, id := range m.order[userID] {
		job, ok := m.byID[id]
		if !ok || job.Notified || !job.Terminal() {
			continue
		}
		job.Notified = true
		completed = append(completed, *job)
	}
	return completed
}
