// Package ledger owns the in-memory intake state: the ordered set of
// intake entries and the last observed rollover day. A day's total is
// always derived by filtering entries on the local calendar day, so "today
// resets to zero" falls out of the filter rather than any stored counter.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/timeutil"
)

// Snapshot is the persistable form of the ledger state.
type Snapshot struct {
	Entries         []model.IntakeEntry `json:"entries"`
	LastRolloverDay time.Time           `json:"last_rollover_day"`
}

// Ledger holds all intake entries for the current session. It is not safe
// for concurrent use; callers serialize access (see the app coordinator).
type Ledger struct {
	clock   timeutil.Clock
	entries []model.IntakeEntry

	// lastRolloverDay is midnight of the calendar day seen by the most
	// recent time-based check. It only exists to detect day transitions;
	// totals never depend on it.
	lastRolloverDay time.Time
}

// New returns an empty ledger using the given clock.
func New(clock timeutil.Clock) *Ledger {
	l := &Ledger{clock: clock}
	l.lastRolloverDay = clock.StartOfDay(clock.Now())
	return l
}

// AddIntake records an intake of the given volume at the current instant
// and returns the created entry. Non-positive amounts are a silent no-op
// and return nil.
func (l *Ledger) AddIntake(amountML int) *model.IntakeEntry {
	l.checkRollover()

	if amountML <= 0 {
		return nil
	}

	entry := model.IntakeEntry{
		ID:        uuid.New().String(),
		AmountML:  amountML,
		Timestamp: l.clock.Now(),
	}
	l.entries = append(l.entries, entry)
	return &entry
}

// RemoveEntry deletes the entry with the given ID. A missing ID is a
// silent no-op. Returns whether an entry was removed.
func (l *Ledger) RemoveEntry(id string) bool {
	l.checkRollover()

	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// ResetToday removes every entry recorded on the current calendar day.
func (l *Ledger) ResetToday() {
	l.checkRollover()

	now := l.clock.Now()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if !l.clock.IsSameDay(e.Timestamp, now) {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// TodayEntries returns the current day's entries, most recent first.
func (l *Ledger) TodayEntries() []model.IntakeEntry {
	l.checkRollover()

	now := l.clock.Now()
	var today []model.IntakeEntry
	for _, e := range l.entries {
		if l.clock.IsSameDay(e.Timestamp, now) {
			today = append(today, e)
		}
	}
	sort.SliceStable(today, func(i, j int) bool {
		return today[i].Timestamp.After(today[j].Timestamp)
	})
	return today
}

// TodayTotal returns the summed volume for the current calendar day.
func (l *Ledger) TodayTotal() int {
	total := 0
	for _, e := range l.TodayEntries() {
		total += e.AmountML
	}
	return total
}

// DailyTotals returns exactly days totals covering the window ending today,
// oldest first, zero-filled for days with no entries. days <= 0 yields nil.
func (l *Ledger) DailyTotals(days int) []model.DailyTotal {
	l.checkRollover()

	if days <= 0 {
		return nil
	}

	today := l.clock.StartOfDay(l.clock.Now())
	totals := make([]model.DailyTotal, days)
	for i := range totals {
		totals[i].Day = l.clock.AddDays(today, i-(days-1))
	}

	for _, e := range l.entries {
		day := l.clock.StartOfDay(e.Timestamp)
		for i := range totals {
			if day.Equal(totals[i].Day) {
				totals[i].TotalML += e.AmountML
				break
			}
		}
	}

	return totals
}

// EntryCount returns the number of entries currently held in memory.
func (l *Ledger) EntryCount() int {
	return len(l.entries)
}

// RolledOver reports whether the calendar day has changed since the last
// check and records the new day. The UI layer polls this to refresh at
// midnight; entry data is untouched either way.
func (l *Ledger) RolledOver() bool {
	return l.checkRollover()
}

// Snapshot returns a copy of the ledger state for persistence.
func (l *Ledger) Snapshot() Snapshot {
	entries := make([]model.IntakeEntry, len(l.entries))
	copy(entries, l.entries)
	return Snapshot{
		Entries:         entries,
		LastRolloverDay: l.lastRolloverDay,
	}
}

// Restore replaces the ledger state from a persisted snapshot.
func (l *Ledger) Restore(snap Snapshot) {
	l.entries = make([]model.IntakeEntry, len(snap.Entries))
	copy(l.entries, snap.Entries)

	if snap.LastRolloverDay.IsZero() {
		l.lastRolloverDay = l.clock.StartOfDay(l.clock.Now())
	} else {
		l.lastRolloverDay = snap.LastRolloverDay
	}
}

// checkRollover updates the recorded rollover day when the calendar day of
// now differs from the last recorded one.
func (l *Ledger) checkRollover() bool {
	today := l.clock.StartOfDay(l.clock.Now())
	if today.Equal(l.lastRolloverDay) {
		return false
	}
	l.lastRolloverDay = today
	return true
}
