package model

// Unit identifies the user-facing volume unit.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// FrequencyMode identifies how reminder spacing is derived.
type FrequencyMode string

const (
	FrequencyHourly    FrequencyMode = "fixed-60"
	FrequencyBiHourly  FrequencyMode = "fixed-120"
	FrequencyTriHourly FrequencyMode = "fixed-180"
	FrequencySmart     FrequencyMode = "smart"
)

// Bounds for validated settings fields. Out-of-range values are clamped,
// never rejected.
const (
	MinDailyGoalML = 500
	MaxDailyGoalML = 6000

	MinMinuteOfDay = 0
	MaxMinuteOfDay = 1439

	MinSmartIntervalMinutes = 1
	MaxSmartIntervalMinutes = 240

	DefaultDailyGoalML = 2000
)

// ReminderConfig holds the reminder notification schedule settings.
type ReminderConfig struct {
	// Enabled controls whether reminders are scheduled at all.
	Enabled bool `json:"enabled"`

	// WakeMinute is the minute of day [0,1439] the reminder window opens.
	WakeMinute int `json:"wake_minute"`

	// BedMinute is the minute of day [0,1439] the reminder window closes.
	// A BedMinute before WakeMinute wraps past midnight.
	BedMinute int `json:"bed_minute"`

	// FrequencyMode selects fixed spacing or the smart interval.
	FrequencyMode FrequencyMode `json:"frequency_mode"`

	// SmartIntervalMinutes is the spacing used when FrequencyMode is smart.
	SmartIntervalMinutes int `json:"smart_interval_minutes"`
}

// Settings is the user-tunable application state persisted alongside the
// ledger.
type Settings struct {
	// DailyGoalML is the daily intake goal in milliliters, clamped to
	// [MinDailyGoalML, MaxDailyGoalML].
	DailyGoalML int `json:"daily_goal_ml"`

	// Unit is the display unit. Switching units never rewrites stored
	// entries; conversion is display-only.
	Unit Unit `json:"unit"`

	// HealthSyncEnabled controls forwarding of new entries to the health
	// datastore. Forced back to false if authorization is refused.
	HealthSyncEnabled bool `json:"health_sync_enabled"`

	// Reminder holds the notification schedule settings.
	Reminder ReminderConfig `json:"reminder"`
}

// DefaultSettings returns the settings used when no persisted state exists
// or the persisted blob fails to decode.
func DefaultSettings() Settings {
	return Settings{
		DailyGoalML: DefaultDailyGoalML,
		Unit:        UnitMetric,
		Reminder: ReminderConfig{
			WakeMinute:           8 * 60,
			BedMinute:            22 * 60,
			FrequencyMode:        FrequencyBiHourly,
			SmartIntervalMinutes: 90,
		},
	}
}

// SetDailyGoal stores the goal clamped to the valid range.
func (s *Settings) SetDailyGoal(ml int) {
	s.DailyGoalML = clampInt(ml, MinDailyGoalML, MaxDailyGoalML)
}

// Normalize clamps every bounded field in place. Applied after decode so a
// hand-edited or corrupted blob can never carry out-of-range values into
// the core.
func (s *Settings) Normalize() {
	s.DailyGoalML = clampInt(s.DailyGoalML, MinDailyGoalML, MaxDailyGoalML)
	if s.Unit != UnitImperial {
		s.Unit = UnitMetric
	}
	s.Reminder.Normalize()
}

// Normalize clamps the reminder minute and interval fields in place.
func (r *ReminderConfig) Normalize() {
	r.WakeMinute = clampInt(r.WakeMinute, MinMinuteOfDay, MaxMinuteOfDay)
	r.BedMinute = clampInt(r.BedMinute, MinMinuteOfDay, MaxMinuteOfDay)
	r.SmartIntervalMinutes = clampInt(
		r.SmartIntervalMinutes, MinSmartIntervalMinutes, MaxSmartIntervalMinutes,
	)
	switch r.FrequencyMode {
	case FrequencyHourly, FrequencyBiHourly, FrequencyTriHourly, FrequencySmart:
	default:
		r.FrequencyMode = FrequencyBiHourly
	}
}

// IntervalMinutes returns the reminder spacing for the configured mode.
// Fixed modes ignore the smart interval entirely.
func (r ReminderConfig) IntervalMinutes() int {
	switch r.FrequencyMode {
	case FrequencyHourly:
		return 60
	case FrequencyTriHourly:
		return 180
	case FrequencySmart:
		return clampInt(
			r.SmartIntervalMinutes, MinSmartIntervalMinutes, MaxSmartIntervalMinutes,
		)
	default:
		return 120
	}
}

// clampInt limits v to the inclusive range [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
