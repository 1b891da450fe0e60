package streak

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/types"
)

var now = time.Date(2024, time.November, 28, 15, 0, 0, 0, time.UTC)

func ankyAt(id string, t time.Time) schema.Session {
	return schema.Session{ID: id, FID: 1, StartTime: types.Int64Ptr(t.Unix()), IsAnky: true}
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestDaysInAnkyverse(t *testing.T) {
	assert.Equal(t, 0, DaysInAnkyverse(domain.AnkyverseEpoch))
	assert.Equal(t, 0, DaysInAnkyverse(domain.AnkyverseEpoch.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysInAnkyverse(domain.AnkyverseEpoch.Add(24*time.Hour)))
	assert.Equal(t, -1, DaysInAnkyverse(domain.AnkyverseEpoch.Add(-time.Hour)))
	assert.Equal(t, int64(1691658000), domain.AnkyverseEpoch.Unix())
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		sessions []schema.Session
		current  int
		max      int
	}{
		{
			name:     "no sessions",
			sessions: nil,
		},
		{
			name: "non-anky sessions are ignored",
			sessions: []schema.Session{
				{ID: "a", StartTime: types.Int64Ptr(daysAgo(0).Unix())},
			},
		},
		{
			name: "three consecutive days ending today",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(2)),
				ankyAt("b", daysAgo(1)),
				ankyAt("c", daysAgo(0)),
			},
			current: 3,
			max:     3,
		},
		{
			name: "streak ending yesterday is still current",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(2)),
				ankyAt("b", daysAgo(1)),
			},
			current: 2,
			max:     2,
		},
		{
			name: "streak ending two days ago is broken",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(3)),
				ankyAt("b", daysAgo(2)),
			},
			current: 0,
			max:     2,
		},
		{
			name: "several ankys on one day count once",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(0)),
				ankyAt("b", daysAgo(0).Add(-time.Hour)),
				ankyAt("c", daysAgo(0).Add(-2*time.Hour)),
			},
			current: 1,
			max:     1,
		},
		{
			name: "gap resets the run",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(10)),
				ankyAt("b", daysAgo(9)),
				ankyAt("c", daysAgo(8)),
				ankyAt("d", daysAgo(7)),
				ankyAt("e", daysAgo(1)),
				ankyAt("f", daysAgo(0)),
			},
			current: 2,
			max:     4,
		},
		{
			name: "unordered input",
			sessions: []schema.Session{
				ankyAt("c", daysAgo(0)),
				ankyAt("a", daysAgo(2)),
				ankyAt("b", daysAgo(1)),
			},
			current: 3,
			max:     3,
		},
		{
			name: "unknown start falls back to end time",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(1)),
				{ID: "b", EndTime: types.Int64Ptr(daysAgo(0).Unix()), IsAnky: true},
			},
			current: 2,
			max:     2,
		},
		{
			name: "session without any timestamp is ignored",
			sessions: []schema.Session{
				ankyAt("a", daysAgo(0)),
				{ID: "b", IsAnky: true},
			},
			current: 1,
			max:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Calculate(tt.sessions, now)
			assert.Equal(t, tt.current, stats.CurrentStreak)
			assert.Equal(t, tt.max, stats.MaxStreak)
			assert.Equal(t, DaysInAnkyverse(now), stats.DaysInAnkyverse)
		})
	}
}

func TestCalculate_UTCDayBoundary(t *testing.T) {
	// 23:59 and 00:01 UTC are consecutive days even though two minutes apart
	late := time.Date(2024, time.November, 26, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, time.November, 27, 0, 1, 0, 0, time.UTC)

	stats := Calculate([]schema.Session{ankyAt("a", late), ankyAt("b", early)}, now)
	assert.Equal(t, 2, stats.MaxStreak)
	assert.Equal(t, 2, stats.CurrentStreak)
}

func TestCalculate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		n := rng.Intn(30)
		sessions := make([]schema.Session, 0, n)
		for j := 0; j < n; j++ {
			s := ankyAt("s", daysAgo(rng.Intn(40)))
			s.IsAnky = rng.Intn(4) != 0
			sessions = append(sessions, s)
		}

		stats := Calculate(sessions, now)
		days := AnkyDays(sessions)

		assert.GreaterOrEqual(t, stats.MaxStreak, stats.CurrentStreak)
		assert.GreaterOrEqual(t, stats.CurrentStreak, 0)
		assert.LessOrEqual(t, stats.MaxStreak, len(days))
		if len(days) > 0 {
			assert.GreaterOrEqual(t, stats.MaxStreak, 1)
		} else {
			assert.Equal(t, 0, stats.MaxStreak)
		}

		// purity: the same input gives the same output
		assert.Equal(t, stats, Calculate(sessions, now))
	}
}
