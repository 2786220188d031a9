package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectMode(t *testing.T) {
	assert.Equal(t, ModeDistributed, SelectMode(func() bool { return true }))
	assert.Equal(t, ModeFallback, SelectMode(func() bool { return false }))
	assert.Equal(t, ModeFallback, SelectMode(nil))
}

func TestPublishKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, "publish-abc", PublishKey("abc"))
	assert.Equal(t, PublishKey("abc"), PublishKey("abc"))
}

func TestSnapshotKeyUsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 02:00 on the 2nd in UTC+9 is still the 1st in UTC.
	local := time.Date(2026, 3, 2, 2, 0, 0, 0, loc)

	assert.Equal(t, "snapshot-u1-2026-03-01", SnapshotKey("u1", local))
}

func TestUntilNextHourUTC(t *testing.T) {
	now := time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)
	assert.Equal(t, 90*time.Minute, untilNextHourUTC(6, now))

	// Already past today's slot: wait for tomorrow.
	now = time.Date(2026, 3, 1, 6, 0, 1, 0, time.UTC)
	assert.Equal(t, 24*time.Hour-time.Second, untilNextHourUTC(6, now))
}
