// Package app is the single-writer coordinator over the core state. Every
// mutation of the ledger or settings passes through one mutex, is
// persisted before returning, and only then fans out asynchronous bridge
// work. Observers receive change events over a buffered channel; a slow
// observer loses events rather than blocking a mutation.
package app

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hydration/internal/health"
	"github.com/nhle/hydration/internal/ledger"
	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/notify"
	"github.com/nhle/hydration/internal/persist"
	"github.com/nhle/hydration/internal/timeutil"
)

// EventKind classifies a change event pushed to observers.
type EventKind string

const (
	EventLedgerChanged      EventKind = "ledger"
	EventSettingsChanged    EventKind = "settings"
	EventPermissionsChanged EventKind = "permissions"
)

// Event notifies observers that part of the observable state changed.
// Observers re-read through the public getters; events carry no payload.
type Event struct {
	Kind EventKind
}

// App owns the core state and serializes all mutations.
type App struct {
	clock   timeutil.Clock
	gateway *persist.Gateway
	health  *health.Bridge
	notify  *notify.Bridge
	log     *logrus.Entry

	mu       sync.Mutex
	ledger   *ledger.Ledger
	settings model.Settings

	events chan Event
}

// New restores persisted state through the gateway and returns a ready
// coordinator. A missing or corrupt persisted blob yields defaults, never
// an error.
func New(
	ctx context.Context,
	clock timeutil.Clock,
	gateway *persist.Gateway,
	healthBridge *health.Bridge,
	notifyBridge *notify.Bridge,
	log *logrus.Logger,
) (*App, error) {
	snap, settings, err := gateway.Load(ctx)
	if err != nil {
		return nil, err
	}

	l := ledger.New(clock)
	l.Restore(snap)

	return &App{
		clock:    clock,
		gateway:  gateway,
		health:   healthBridge,
		notify:   notifyBridge,
		log:      log.WithField("component", "app"),
		ledger:   l,
		settings: settings,
		events:   make(chan Event, 16),
	}, nil
}

// Events returns the observer channel. Events are dropped, not queued,
// when the channel is full.
func (a *App) Events() <-chan Event {
	return a.events
}

// AddIntake records an intake at the current instant. Non-positive
// amounts are a silent no-op returning nil. The entry is committed and
// persisted before the health push is dispatched; a failed push never
// rolls it back.
func (a *App) AddIntake(ctx context.Context, amountML int) *model.IntakeEntry {
	a.mu.Lock()
	entry := a.ledger.AddIntake(amountML)
	if entry == nil {
		a.mu.Unlock()
		return nil
	}
	syncEnabled := a.settings.HealthSyncEnabled
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.emit(EventLedgerChanged)

	if syncEnabled {
		a.health.PushEntry(*entry)
	}
	return entry
}

// RemoveEntry deletes an entry by ID; absent IDs are a no-op.
func (a *App) RemoveEntry(ctx context.Context, id string) {
	a.mu.Lock()
	removed := a.ledger.RemoveEntry(id)
	if removed {
		a.persistLocked(ctx)
	}
	a.mu.Unlock()

	if removed {
		a.emit(EventLedgerChanged)
	}
}

// ResetToday removes every entry recorded on the current calendar day.
func (a *App) ResetToday(ctx context.Context) {
	a.mu.Lock()
	a.ledger.ResetToday()
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.emit(EventLedgerChanged)
}

// TodayEntries returns the current day's entries, most recent first.
func (a *App) TodayEntries() []model.IntakeEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.TodayEntries()
}

// TodayTotal returns the summed volume for the current calendar day.
func (a *App) TodayTotal() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.TodayTotal()
}

// DailyTotals returns the window of daily totals ending today.
func (a *App) DailyTotals(days int) []model.DailyTotal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.DailyTotals(days)
}

// Settings returns a copy of the current settings.
func (a *App) Settings() model.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// SetDailyGoal stores the goal clamped to the valid range.
func (a *App) SetDailyGoal(ctx context.Context, ml int) {
	a.mu.Lock()
	a.settings.SetDailyGoal(ml)
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.emit(EventSettingsChanged)
}

// SetUnit switches the display unit. Stored entries are untouched;
// conversion happens at display time only.
func (a *App) SetUnit(ctx context.Context, unit model.Unit) {
	a.mu.Lock()
	if unit == model.UnitImperial {
		a.settings.Unit = model.UnitImperial
	} else {
		a.settings.Unit = model.UnitMetric
	}
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.emit(EventSettingsChanged)
}

// SetReminderConfig replaces the reminder schedule fields, keeping the
// current enabled flag, and reschedules pending notifications when
// reminders are on.
func (a *App) SetReminderConfig(ctx context.Context, cfg model.ReminderConfig) {
	a.mu.Lock()
	cfg.Enabled = a.settings.Reminder.Enabled
	cfg.Normalize()
	a.settings.Reminder = cfg
	a.persistLocked(ctx)
	a.mu.Unlock()

	a.emit(EventSettingsChanged)

	if cfg.Enabled {
		a.reschedule(ctx, cfg)
	}
}

// EnableHealthSync toggles forwarding of new entries to the health store.
// Enabling without authorization triggers exactly one authorization
// request; if it is refused the flag stays false and false is returned.
func (a *App) EnableHealthSync(ctx context.Context, enabled bool) bool {
	if !enabled {
		a.setHealthSync(ctx, false)
		return true
	}

	if a.health.Permission() != model.PermissionAuthorized {
		if !a.health.RequestAccess(ctx) {
			a.setHealthSync(ctx, false)
			a.emit(EventPermissionsChanged)
			return false
		}
		a.emit(EventPermissionsChanged)
	}

	a.setHealthSync(ctx, true)
	return true
}

// EnableReminders toggles reminder notifications. Enabling clears this
// app's pending requests and schedules a fresh batch; disabling only
// clears. Refused authorization leaves the flag false and returns false.
func (a *App) EnableReminders(ctx context.Context, enabled bool) bool {
	if !enabled {
		a.setReminderEnabled(ctx, false)
		if err := a.notify.Clear(ctx); err != nil {
			a.log.WithError(err).Warn("clearing reminders failed")
		}
		return true
	}

	if a.notify.Permission() != model.PermissionAuthorized {
		if !a.notify.RequestAccess(ctx) {
			a.setReminderEnabled(ctx, false)
			a.emit(EventPermissionsChanged)
			return false
		}
		a.emit(EventPermissionsChanged)
	}

	a.setReminderEnabled(ctx, true)

	a.mu.Lock()
	cfg := a.settings.Reminder
	a.mu.Unlock()
	a.reschedule(ctx, cfg)
	return true
}

// HealthPermission returns the health capability permission state.
func (a *App) HealthPermission() model.PermissionState {
	return a.health.Permission()
}

// NotifyPermission returns the notification capability permission state.
func (a *App) NotifyPermission() model.PermissionState {
	return a.notify.Permission()
}

// RefreshPermissions re-queries both capabilities. If a previously
// granted permission was revoked externally or the capability is gone,
// the corresponding enabled flag is forced off. An unknown state is not a
// revocation: the flags keep the user's persisted intent and the bridges
// already skip pushes while unauthorized.
func (a *App) RefreshPermissions(ctx context.Context) {
	healthState := a.health.RefreshStatus(ctx)
	notifyState := a.notify.RefreshStatus(ctx)

	a.mu.Lock()
	changed := false
	if revoked(healthState) && a.settings.HealthSyncEnabled {
		a.settings.HealthSyncEnabled = false
		changed = true
	}
	if revoked(notifyState) && a.settings.Reminder.Enabled {
		a.settings.Reminder.Enabled = false
		changed = true
	}
	if changed {
		a.persistLocked(ctx)
	}
	a.mu.Unlock()

	a.emit(EventPermissionsChanged)
	if changed {
		a.emit(EventSettingsChanged)
	}
}

// CheckRollover reports whether the calendar day changed since the last
// check, emitting a ledger event so observers refresh their today view.
func (a *App) CheckRollover() bool {
	a.mu.Lock()
	rolled := a.ledger.RolledOver()
	a.mu.Unlock()

	if rolled {
		a.emit(EventLedgerChanged)
	}
	return rolled
}

func (a *App) setHealthSync(ctx context.Context, enabled bool) {
	a.mu.Lock()
	changed := a.settings.HealthSyncEnabled != enabled
	if changed {
		a.settings.HealthSyncEnabled = enabled
		a.persistLocked(ctx)
	}
	a.mu.Unlock()

	if changed {
		a.emit(EventSettingsChanged)
	}
}

func (a *App) setReminderEnabled(ctx context.Context, enabled bool) {
	a.mu.Lock()
	changed := a.settings.Reminder.Enabled != enabled
	if changed {
		a.settings.Reminder.Enabled = enabled
		a.persistLocked(ctx)
	}
	a.mu.Unlock()

	if changed {
		a.emit(EventSettingsChanged)
	}
}

// revoked reports whether a refreshed permission state means a previously
// usable capability can no longer be used.
func revoked(state model.PermissionState) bool {
	return state == model.PermissionDenied || state == model.PermissionUnavailable
}

func (a *App) reschedule(ctx context.Context, cfg model.ReminderConfig) {
	if err := a.notify.Reschedule(ctx, cfg, a.clock.Now()); err != nil {
		a.log.WithError(err).Warn("rescheduling reminders failed")
	}
}

// persistLocked writes the current state through the gateway. Persistence
// failures are logged and swallowed; the in-memory state stays committed.
// Callers must hold a.mu.
func (a *App) persistLocked(ctx context.Context) {
	if err := a.gateway.Save(ctx, a.ledger.Snapshot(), a.settings); err != nil {
		a.log.WithError(err).Error("persisting state failed")
	}
}

// emit pushes an event without blocking; full channels drop.
func (a *App) emit(kind EventKind) {
	select {
	case a.events <- Event{Kind: kind}:
	default:
	}
}
