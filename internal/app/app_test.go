package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hydration/internal/health"
	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/notify"
	"github.com/nhle/hydration/internal/persist"
	"github.com/nhle/hydration/internal/store"
	"github.com/nhle/hydration/internal/timeutil"
)

// fakeHealthStore grants or refuses authorization and records samples.
type fakeHealthStore struct {
	mu           sync.Mutex
	available    bool
	grant        bool
	status       health.AuthorizationStatus
	requestCalls int
	savedCh      chan health.Sample
}

func newFakeHealthStore(grant bool) *fakeHealthStore {
	return &fakeHealthStore{
		available: true,
		grant:     grant,
		status:    health.StatusNotDetermined,
		savedCh:   make(chan health.Sample, 16),
	}
}

func (f *fakeHealthStore) IsAvailable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeHealthStore) AuthorizationStatus(context.Context) health.AuthorizationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeHealthStore) RequestAuthorization(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.grant {
		f.status = health.StatusAuthorized
	} else {
		f.status = health.StatusDenied
	}
	return f.grant, nil
}

func (f *fakeHealthStore) SaveSample(_ context.Context, s health.Sample) error {
	f.savedCh <- s
	return nil
}

// fakeNotifyScheduler is an always-authorized scheduler capability.
type fakeNotifyScheduler struct {
	mu      sync.Mutex
	pending map[string]notify.Request
}

func newFakeNotifyScheduler() *fakeNotifyScheduler {
	return &fakeNotifyScheduler{pending: make(map[string]notify.Request)}
}

func (f *fakeNotifyScheduler) PendingRequests(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeNotifyScheduler) RemoveRequests(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.pending, id)
	}
	return nil
}

func (f *fakeNotifyScheduler) AuthorizationStatus(context.Context) notify.AuthorizationStatus {
	return notify.StatusAuthorized
}

func (f *fakeNotifyScheduler) RequestAuthorization(context.Context) (bool, error) {
	return true, nil
}

func (f *fakeNotifyScheduler) Schedule(_ context.Context, req notify.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[req.Identifier] = req
	return nil
}

func (f *fakeNotifyScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fixture struct {
	app    *App
	clock  *timeutil.FakeClock
	kv     *store.MemoryKV
	hs     *fakeHealthStore
	ns     *fakeNotifyScheduler
	logger *logrus.Logger
}

func newFixture(t *testing.T, grantHealth bool) *fixture {
	t.Helper()

	clock := timeutil.NewFakeClock(
		time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local),
	)
	kv := store.NewMemoryKV()
	hs := newFakeHealthStore(grantHealth)
	ns := newFakeNotifyScheduler()
	logger := quietLogger()

	a, err := New(
		context.Background(),
		clock,
		persist.New(kv),
		health.NewBridge(hs, logger),
		notify.NewBridge(ns, logger),
		logger,
	)
	require.NoError(t, err)

	return &fixture{app: a, clock: clock, kv: kv, hs: hs, ns: ns, logger: logger}
}

func (f *fixture) reopen(t *testing.T) *App {
	t.Helper()
	a, err := New(
		context.Background(),
		f.clock,
		persist.New(f.kv),
		health.NewBridge(f.hs, f.logger),
		notify.NewBridge(f.ns, f.logger),
		f.logger,
	)
	require.NoError(t, err)
	return a
}

// reopenFresh reopens the persisted state with brand-new capabilities that
// have not been asked for authorization yet, as after a process restart.
func (f *fixture) reopenFresh(t *testing.T) *App {
	t.Helper()
	f.hs = newFakeHealthStore(f.hs.grant)
	f.ns = newFakeNotifyScheduler()
	return f.reopen(t)
}

func TestAddIntakeCommitsAndPersists(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	entry := f.app.AddIntake(ctx, 250)
	require.NotNil(t, entry)
	require.Equal(t, 250, f.app.TodayTotal())

	// State survives a reload through the gateway.
	reopened := f.reopen(t)
	require.Equal(t, 250, reopened.TodayTotal())
}

func TestAddIntakeNonPositiveNoOp(t *testing.T) {
	f := newFixture(t, true)
	require.Nil(t, f.app.AddIntake(context.Background(), 0))
	require.Nil(t, f.app.AddIntake(context.Background(), -50))
	require.Equal(t, 0, f.app.TodayTotal())
}

func TestAddIntakePushesToHealthWhenEnabled(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableHealthSync(ctx, true))
	f.app.AddIntake(ctx, 300)

	select {
	case sample := <-f.hs.savedCh:
		require.Equal(t, 300, sample.VolumeML)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a health sample push")
	}
}

func TestAddIntakeNoPushWhenSyncDisabled(t *testing.T) {
	f := newFixture(t, true)
	f.app.AddIntake(context.Background(), 300)

	select {
	case <-f.hs.savedCh:
		t.Fatal("unexpected health push with sync disabled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEnableHealthSyncRefused(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.False(t, f.app.EnableHealthSync(ctx, true))
	require.False(t, f.app.Settings().HealthSyncEnabled)
	require.Equal(t, model.PermissionDenied, f.app.HealthPermission())
	// Exactly one authorization request was made.
	require.Equal(t, 1, f.hs.requestCalls)
}

func TestSetDailyGoalClamps(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.app.SetDailyGoal(ctx, 100)
	require.Equal(t, model.MinDailyGoalML, f.app.Settings().DailyGoalML)

	f.app.SetDailyGoal(ctx, 9000)
	require.Equal(t, model.MaxDailyGoalML, f.app.Settings().DailyGoalML)

	f.app.SetDailyGoal(ctx, 2200)
	require.Equal(t, 2200, f.app.Settings().DailyGoalML)
}

func TestSetUnitDoesNotRewriteEntries(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.app.AddIntake(ctx, 500)
	f.app.SetUnit(ctx, model.UnitImperial)

	require.Equal(t, model.UnitImperial, f.app.Settings().Unit)
	require.Equal(t, 500, f.app.TodayTotal())
	require.Equal(t, 500, f.app.TodayEntries()[0].AmountML)
}

func TestEnableRemindersSchedulesBatch(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableReminders(ctx, true))
	require.True(t, f.app.Settings().Reminder.Enabled)
	require.NotZero(t, f.ns.count())
}

func TestDisableRemindersClearsOnly(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableReminders(ctx, true))
	require.NotZero(t, f.ns.count())

	require.True(t, f.app.EnableReminders(ctx, false))
	require.False(t, f.app.Settings().Reminder.Enabled)
	require.Zero(t, f.ns.count())
}

func TestSetReminderConfigReschedules(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableReminders(ctx, true))
	before := f.ns.count()
	require.NotZero(t, before)

	cfg := f.app.Settings().Reminder
	cfg.FrequencyMode = model.FrequencySmart
	cfg.SmartIntervalMinutes = 500 // clamps to 240
	f.app.SetReminderConfig(ctx, cfg)

	got := f.app.Settings().Reminder
	require.Equal(t, model.FrequencySmart, got.FrequencyMode)
	require.Equal(t, model.MaxSmartIntervalMinutes, got.SmartIntervalMinutes)
	require.True(t, got.Enabled)
	require.NotZero(t, f.ns.count())
}

func TestRefreshPermissionsForcesFlagsOffOnRevocation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableHealthSync(ctx, true))

	// Revoke externally; nothing changes until a refresh runs.
	f.hs.mu.Lock()
	f.hs.status = health.StatusDenied
	f.hs.mu.Unlock()
	require.True(t, f.app.Settings().HealthSyncEnabled)

	f.app.RefreshPermissions(ctx)
	require.False(t, f.app.Settings().HealthSyncEnabled)
	require.Equal(t, model.PermissionDenied, f.app.HealthPermission())
}

func TestRefreshPermissionsKeepsFlagsWhenUndetermined(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableHealthSync(ctx, true))
	require.True(t, f.app.EnableReminders(ctx, true))

	// Simulate a restart: same persisted state, fresh bridges against a
	// capability that has not been asked yet. Undetermined is not a
	// revocation, so the persisted user intent must survive.
	reopened := f.reopenFresh(t)
	reopened.RefreshPermissions(ctx)

	require.True(t, reopened.Settings().HealthSyncEnabled)
	require.True(t, reopened.Settings().Reminder.Enabled)
	require.Equal(t, model.PermissionUnknown, reopened.HealthPermission())
}

func TestRefreshPermissionsForcesFlagOffWhenUnavailable(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.True(t, f.app.EnableHealthSync(ctx, true))

	f.hs.mu.Lock()
	f.hs.available = false
	f.hs.mu.Unlock()

	f.app.RefreshPermissions(ctx)
	require.False(t, f.app.Settings().HealthSyncEnabled)
	require.Equal(t, model.PermissionUnavailable, f.app.HealthPermission())
}

func TestRedundantToggleEmitsNoSettingsEvent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// Both toggles are already off; disabling again changes nothing and
	// must not wake observers.
	require.True(t, f.app.EnableHealthSync(ctx, false))
	require.True(t, f.app.EnableReminders(ctx, false))

	select {
	case ev := <-f.app.Events():
		t.Fatalf("unexpected %s event for a no-op toggle", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCheckRollover(t *testing.T) {
	f := newFixture(t, true)

	require.False(t, f.app.CheckRollover())
	f.clock.Advance(24 * time.Hour)
	require.True(t, f.app.CheckRollover())
	require.False(t, f.app.CheckRollover())
}

func TestEventsEmittedOnMutation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.app.AddIntake(ctx, 200)

	select {
	case ev := <-f.app.Events():
		require.Equal(t, EventLedgerChanged, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a ledger change event")
	}
}
