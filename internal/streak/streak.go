package streak

import (
	"sort"
	"time"

	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/store/schema"
)

// Stats summarizes a writer's streaks of consecutive UTC days with an Anky
type Stats struct {
	CurrentStreak   int
	MaxStreak       int
	DaysInAnkyverse int
}

// DaysInAnkyverse returns the whole days elapsed since the Ankyverse epoch
func DaysInAnkyverse(now time.Time) int {
	seconds := now.Unix() - domain.AnkyverseEpoch.Unix()
	days := seconds / domain.SECONDS_PER_DAY
	if seconds < 0 && seconds%domain.SECONDS_PER_DAY != 0 {
		days-- // floor for instants before the epoch
	}
	return int(days)
}

// dayNumber maps a unix time to its UTC calendar day
func dayNumber(unix int64) int64 {
	day := unix / domain.SECONDS_PER_DAY
	if unix < 0 && unix%domain.SECONDS_PER_DAY != 0 {
		day--
	}
	return day
}

// AnkyDays returns the distinct UTC days, ascending, on which the writer produced an Anky.
// A session counts on the day it started; when the start was never observed its end is used
// and a session with neither is ignored.
func AnkyDays(sessions []schema.Session) []int64 {
	seen := make(map[int64]struct{})
	days := make([]int64, 0)
	for i := range sessions {
		if !sessions[i].IsAnky {
			continue
		}
		ts, ok := sessions[i].DayTime()
		if !ok {
			continue
		}
		d := dayNumber(ts)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Calculate computes the streak stats of one writer's sessions as of now
func Calculate(sessions []schema.Session, now time.Time) Stats {
	stats := Stats{DaysInAnkyverse: DaysInAnkyverse(now)}

	days := AnkyDays(sessions)
	if len(days) == 0 {
		return stats
	}

	run := 1
	stats.MaxStreak = 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > stats.MaxStreak {
			stats.MaxStreak = run
		}
	}

	// the final run is still alive if its last day is today or yesterday
	if dayNumber(now.Unix())-days[len(days)-1] <= 1 {
		stats.CurrentStreak = run
	}

	return stats
}
