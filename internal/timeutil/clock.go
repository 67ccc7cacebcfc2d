// Package timeutil abstracts wall-clock and local-calendar arithmetic so
// that ledger and scheduler logic can run against a controlled clock in
// tests. Calendar days are device-local midnight-to-midnight windows.
package timeutil

import "time"

// DateComponents is the broken-down local representation of an instant.
type DateComponents struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// Clock provides the current time and local-calendar operations.
type Clock interface {
	Now() time.Time
	StartOfDay(t time.Time) time.Time
	IsSameDay(a, b time.Time) bool
	AddDays(t time.Time, n int) time.Time
	AddMinutes(t time.Time, n int) time.Time
	Components(t time.Time) DateComponents
}

// SystemClock implements Clock using the real time package and the local
// location.
type SystemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) StartOfDay(t time.Time) time.Time {
	return StartOfDay(t)
}

func (SystemClock) IsSameDay(a, b time.Time) bool {
	return IsSameDay(a, b)
}

func (SystemClock) AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func (SystemClock) AddMinutes(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * time.Minute)
}

func (SystemClock) Components(t time.Time) DateComponents {
	return DateComponents{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// StartOfDay truncates an instant to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsSameDay reports whether two instants fall on the same local calendar day.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
