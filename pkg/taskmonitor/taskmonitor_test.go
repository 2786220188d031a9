package taskmonitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorLifecycle(t *testing.T) {
	m := New(10)

	id := m.Create("u1", "generate")
	job, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, "generate", job.Kind)

	m.SetRunning(id)
	job, _ = m.Get(id)
	assert.Equal(t, StatusRunning, job.Status)
	assert.False(t, job.Terminal())

	m.SetDone(id, "item-42")
	job, _ = m.Get(id)
	assert.Equal(t, StatusDone, job.Status)
	assert.Equal(t, "item-42", job.Result)
	assert.True(t, job.Terminal())
}

func TestMonitorSetError(t *testing.T) {
	m := New(10)
	id := m.Create("u1", "comment")

	m.SetError(id, errors.New("provider unavailable"))

	job, _ := m.Get(id)
	assert.Equal(t, StatusError, job.Status)
	assert.Equal(t, "provider unavailable", job.Error)
	assert.True(t, job.Terminal())
}

func TestMonitorEvictsOldestWhenFull(t *testing.T) {
	m := New(3)

	first := m.Create("u1", "generate")
	m.Create("u1", "generate")
	m.Create("u1", "generate")
	m.Create("u1", "generate") // evicts first

	_, ok := m.Get(first)
	assert.False(t, ok, "oldest job evicted once the ring is full")
	assert.Len(t, m.ListByUser("u1"), 3)
}

func TestMonitorRingIsPerUser(t *testing.T) {
	m := New(2)

	kept := m.Create("u1", "generate")
	m.Create("u2", "generate")
	m.Create("u2", "generate")
	m.Create("u2", "generate")

	_, ok := m.Get(kept)
	assert.True(t, ok, "another user's churn must not evict this user's jobs")
	assert.Len(t, m.ListByUser("u2"), 2)
}

func TestListByUserNewestFirst(t *testing.T) {
	m := New(10)
	older := m.Create("u1", "generate")
	newer := m.Create("u1", "comment")

	jobs := m.ListByUser("u1")
	require.Len(t, jobs, 2)
	assert.Equal(t, newer, jobs[0].ID)
	assert.Equal(t, older, jobs[1].ID)
}

func TestDrainCompletedReportsEachJobOnce(t *testing.T) {
	m := New(10)
	done := m.Create("u1", "generate")
	pending := m.Create("u1", "generate")
	m.SetDone(done, "item-1")

	drained := m.DrainCompleted("u1")
	require.Len(t, drained, 1)
	assert.Equal(t, done, drained[0].ID)

	assert.Empty(t, m.DrainCompleted("u1"), "already-notified jobs are not drained again")

	m.SetError(pending, errors.New("boom"))
	drained = m.DrainCompleted("u1")
	require.Len(t, drained, 1)
	assert.Equal(t, pending, drained[0].ID)
}

func TestMonitorUnknownJob(t *testing.T) {
	m := New(10)

	_, ok := m.Get("missing")
	assert.False(t, ok)

	// Updates to unknown ids are silent no-ops.
	m.SetDone("missing", "x")
	m.SetError("missing", errors.New("x"))
}
