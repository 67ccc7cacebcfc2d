package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/reminder"
)

// fakeScheduler is a scriptable Scheduler capability.
type fakeScheduler struct {
	mu           sync.Mutex
	status       AuthorizationStatus
	grant        bool
	requestCalls int
	pending      map[string]Request
	removed      []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		status:  StatusNotDetermined,
		pending: make(map[string]Request),
	}
}

func (f *fakeScheduler) PendingRequests(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeScheduler) RemoveRequests(_ context.Context, identifiers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range identifiers {
		delete(f.pending, id)
		f.removed = append(f.removed, id)
	}
	return nil
}

func (f *fakeScheduler) AuthorizationStatus(context.Context) AuthorizationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeScheduler) RequestAuthorization(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.grant {
		f.status = StatusAuthorized
	} else {
		f.status = StatusDenied
	}
	return f.grant, nil
}

func (f *fakeScheduler) Schedule(_ context.Context, req Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[req.Identifier] = req
	return nil
}

func (f *fakeScheduler) requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqs := make([]Request, 0, len(f.pending))
	for _, r := range f.pending {
		reqs = append(reqs, r)
	}
	return reqs
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func enabledConfig() model.ReminderConfig {
	return model.ReminderConfig{
		Enabled:       true,
		WakeMinute:    480,
		BedMinute:     1320,
		FrequencyMode: model.FrequencyBiHourly,
	}
}

func TestRequestAccessGrantedAndRefused(t *testing.T) {
	sched := newFakeScheduler()
	sched.grant = true
	b := NewBridge(sched, quietLogger())

	require.True(t, b.RequestAccess(context.Background()))
	require.Equal(t, model.PermissionAuthorized, b.Permission())

	refused := newFakeScheduler()
	b2 := NewBridge(refused, quietLogger())
	require.False(t, b2.RequestAccess(context.Background()))
	require.Equal(t, model.PermissionDenied, b2.Permission())
	require.Equal(t, 1, refused.requestCalls)
}

func TestRescheduleSchedulesComputedBatch(t *testing.T) {
	sched := newFakeScheduler()
	b := NewBridge(sched, quietLogger())

	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.Local)
	cfg := enabledConfig()
	require.NoError(t, b.Reschedule(context.Background(), cfg, now))

	want := reminder.FireTimes(cfg, now)
	reqs := sched.requests()
	require.Len(t, reqs, len(want))

	fireTimes := make(map[time.Time]bool, len(reqs))
	for _, r := range reqs {
		require.True(t, len(r.Identifier) > len(IdentifierPrefix))
		require.Equal(t, IdentifierPrefix, r.Identifier[:len(IdentifierPrefix)])
		require.NotEmpty(t, r.Title)
		fireTimes[r.FireAt] = true
	}
	for _, at := range want {
		require.True(t, fireTimes[at], "missing fire at %v", at)
	}
}

func TestRescheduleClearsOwnRequestsFirst(t *testing.T) {
	sched := newFakeScheduler()
	b := NewBridge(sched, quietLogger())
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.Local)

	require.NoError(t, b.Reschedule(ctx, enabledConfig(), now))
	first := len(sched.requests())
	require.NotZero(t, first)

	// A second pass replaces rather than accumulates.
	require.NoError(t, b.Reschedule(ctx, enabledConfig(), now))
	require.Len(t, sched.requests(), first)
	require.NotEmpty(t, sched.removed)
}

func TestRescheduleLeavesForeignRequestsAlone(t *testing.T) {
	sched := newFakeScheduler()
	sched.pending["other-app-42"] = Request{Identifier: "other-app-42"}
	b := NewBridge(sched, quietLogger())

	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.Local)
	require.NoError(t, b.Reschedule(context.Background(), enabledConfig(), now))

	_, stillThere := sched.pending["other-app-42"]
	require.True(t, stillThere)
	require.NotContains(t, sched.removed, "other-app-42")
}

func TestRescheduleDisabledOnlyClears(t *testing.T) {
	sched := newFakeScheduler()
	b := NewBridge(sched, quietLogger())
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.Local)

	require.NoError(t, b.Reschedule(ctx, enabledConfig(), now))
	require.NotEmpty(t, sched.requests())

	cfg := enabledConfig()
	cfg.Enabled = false
	require.NoError(t, b.Reschedule(ctx, cfg, now))
	require.Empty(t, sched.requests())
}

func TestRefreshStatusTracksCapability(t *testing.T) {
	sched := newFakeScheduler()
	b := NewBridge(sched, quietLogger())
	ctx := context.Background()

	require.Equal(t, model.PermissionUnknown, b.RefreshStatus(ctx))

	sched.mu.Lock()
	sched.status = StatusAuthorized
	sched.mu.Unlock()
	require.Equal(t, model.PermissionAuthorized, b.RefreshStatus(ctx))

	sched.mu.Lock()
	sched.status = StatusDenied
	sched.mu.Unlock()
	require.Equal(t, model.PermissionDenied, b.RefreshStatus(ctx))
}

func TestLocalSchedulerPendingAndRemove(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	sched, err := NewLocalScheduler(func(id, _, _ string) {
		mu.Lock()
		delivered = append(delivered, id)
		mu.Unlock()
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	ctx := context.Background()
	future := time.Now().Add(time.Hour)
	require.NoError(t, sched.Schedule(ctx, Request{
		Identifier: IdentifierPrefix + "000",
		FireAt:     future,
		Title:      "t",
		Body:       "b",
	}))
	require.NoError(t, sched.Schedule(ctx, Request{
		Identifier: IdentifierPrefix + "001",
		FireAt:     future.Add(time.Hour),
		Title:      "t",
		Body:       "b",
	}))

	pending, err := sched.PendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, sched.RemoveRequests(ctx, []string{IdentifierPrefix + "000"}))
	pending, err = sched.PendingRequests(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{IdentifierPrefix + "001"}, pending)

	// Nothing fired: both jobs were in the future.
	mu.Lock()
	require.Empty(t, delivered)
	mu.Unlock()
}

func TestLocalSchedulerAlwaysAuthorized(t *testing.T) {
	sched, err := NewLocalScheduler(nil, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	require.Equal(t, StatusAuthorized, sched.AuthorizationStatus(context.Background()))
	granted, err := sched.RequestAuthorization(context.Background())
	require.NoError(t, err)
	require.True(t, granted)
}
