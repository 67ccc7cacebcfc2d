// Package reminder computes reminder fire times. The computation is pure:
// given the same inputs and the same current time it always produces the
// same sequence, so scheduling can be tested without touching the
// notification service.
package reminder

import (
	"sort"
	"time"

	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/timeutil"
)

const (
	// DefaultHorizonDays is how many calendar days of fire times are
	// materialized per scheduling pass.
	DefaultHorizonDays = 7

	// DefaultMaxCount caps the number of fire times per pass.
	DefaultMaxCount = 64

	minutesPerDay = 1440
)

// FireTimes computes the fire sequence for a reminder configuration using
// the default horizon and cap. A disabled config yields nil.
func FireTimes(cfg model.ReminderConfig, now time.Time) []time.Time {
	if !cfg.Enabled {
		return nil
	}
	return ComputeFireTimes(
		cfg.WakeMinute, cfg.BedMinute, cfg.IntervalMinutes(),
		now, DefaultHorizonDays, DefaultMaxCount,
	)
}

// ComputeFireTimes returns the ordered future instants at which reminders
// should fire, starting strictly after now.
//
// The wake and bed minutes define the active window within a generic day:
// bed after wake is a single range, bed before wake wraps past midnight
// into two ranges, and equal values mean the whole day. Candidate offsets
// step from each range's start by intervalMinutes, staying strictly inside
// the range. Offsets are materialized on each of the next horizonDays
// local calendar days and the result is capped at maxCount instants.
func ComputeFireTimes(
	wakeMinute, bedMinute, intervalMinutes int,
	now time.Time,
	horizonDays, maxCount int,
) []time.Time {
	if intervalMinutes <= 0 || horizonDays <= 0 || maxCount <= 0 {
		return nil
	}

	wake := clampMinute(wakeMinute)
	bed := clampMinute(bedMinute)

	offsets := dayOffsets(wake, bed, intervalMinutes)
	if len(offsets) == 0 {
		return nil
	}

	var fires []time.Time
	dayStart := timeutil.StartOfDay(now)

	for day := 0; day < horizonDays; day++ {
		start := dayStart.AddDate(0, 0, day)
		for _, offset := range offsets {
			at := start.Add(time.Duration(offset) * time.Minute)
			if !at.After(now) {
				continue
			}
			fires = append(fires, at)
			if len(fires) >= maxCount {
				return fires
			}
		}
	}

	return fires
}

// dayOffsets expands the active window into the sorted minute-of-day
// offsets a single day contributes.
func dayOffsets(wake, bed, interval int) []int {
	type minuteRange struct{ start, end int }

	var ranges []minuteRange
	switch {
	case bed > wake:
		ranges = []minuteRange{{wake, bed}}
	case bed < wake:
		// Window wraps midnight.
		ranges = []minuteRange{{wake, minutesPerDay}, {0, bed}}
	default:
		ranges = []minuteRange{{0, minutesPerDay}}
	}

	var offsets []int
	for _, r := range ranges {
		for m := r.start; m < r.end; m += interval {
			offsets = append(offsets, m)
		}
	}

	sort.Ints(offsets)
	return offsets
}

func clampMinute(m int) int {
	if m < 0 {
		return 0
	}
	if m > minutesPerDay-1 {
		return minutesPerDay - 1
	}
	return m
}
