// Package notify translates computed reminder fire times into scheduled
// requests against an external notification capability. The bridge owns
// the notification permission state; actual delivery is the capability's
// problem and failures at this boundary are logged and dropped.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/reminder"
)

// IdentifierPrefix tags every reminder request this app schedules, so a
// reschedule can clear exactly its own pending requests and nothing else.
const IdentifierPrefix = "hydration-reminder-"

// AuthorizationStatus is the tri-state reported by the capability itself.
type AuthorizationStatus string

const (
	StatusNotDetermined AuthorizationStatus = "notDetermined"
	StatusAuthorized    AuthorizationStatus = "authorized"
	StatusDenied        AuthorizationStatus = "denied"
)

// Request is a single notification to schedule.
type Request struct {
	Identifier string
	FireAt     time.Time
	Title      string
	Body       string
}

// Scheduler is the external notification-scheduling capability consumed
// by the bridge. Schedule is best-effort and fire-and-forget.
type Scheduler interface {
	PendingRequests(ctx context.Context) ([]string, error)
	RemoveRequests(ctx context.Context, identifiers []string) error
	AuthorizationStatus(ctx context.Context) AuthorizationStatus
	RequestAuthorization(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, req Request) error
}

const (
	reminderTitle = "Time to hydrate"
	reminderBody  = "Have a glass of water and log it."
)

// Bridge tracks the notification permission state and manages the
// scheduled reminder batch.
type Bridge struct {
	scheduler Scheduler
	log       *logrus.Entry

	mu         sync.Mutex
	permission model.PermissionState
}

// NewBridge returns a bridge in the unknown permission state.
func NewBridge(scheduler Scheduler, log *logrus.Logger) *Bridge {
	return &Bridge{
		scheduler:  scheduler,
		log:        log.WithField("component", "notify"),
		permission: model.PermissionUnknown,
	}
}

// Permission returns the last observed permission state.
func (b *Bridge) Permission() model.PermissionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.permission
}

// RequestAccess performs a single authorization round trip and returns
// whether notifications can be scheduled afterwards.
func (b *Bridge) RequestAccess(ctx context.Context) bool {
	if b.scheduler.AuthorizationStatus(ctx) == StatusAuthorized {
		b.setPermission(model.PermissionAuthorized)
		return true
	}

	granted, err := b.scheduler.RequestAuthorization(ctx)
	if err != nil {
		b.log.WithError(err).Warn("notification authorization request failed")
		b.setPermission(model.PermissionDenied)
		return false
	}
	if !granted {
		b.setPermission(model.PermissionDenied)
		return false
	}

	b.setPermission(model.PermissionAuthorized)
	return true
}

// RefreshStatus re-queries the capability and updates the permission
// state, picking up external revocation.
func (b *Bridge) RefreshStatus(ctx context.Context) model.PermissionState {
	switch b.scheduler.AuthorizationStatus(ctx) {
	case StatusAuthorized:
		b.setPermission(model.PermissionAuthorized)
	case StatusDenied:
		b.setPermission(model.PermissionDenied)
	default:
		b.setPermission(model.PermissionUnknown)
	}
	return b.Permission()
}

// Reschedule clears every pending request carrying the app's identifier
// prefix and schedules a fresh batch computed from cfg. A disabled config
// only clears. Individual schedule failures are logged and skipped.
func (b *Bridge) Reschedule(ctx context.Context, cfg model.ReminderConfig, now time.Time) error {
	if err := b.clearOwn(ctx); err != nil {
		return err
	}

	if !cfg.Enabled {
		return nil
	}

	fires := reminder.FireTimes(cfg, now)
	for i, fireAt := range fires {
		req := Request{
			Identifier: fmt.Sprintf("%s%03d", IdentifierPrefix, i),
			FireAt:     fireAt,
			Title:      reminderTitle,
			Body:       reminderBody,
		}
		if err := b.scheduler.Schedule(ctx, req); err != nil {
			b.log.WithError(err).WithField("fire_at", fireAt).
				Warn("scheduling reminder failed")
		}
	}

	b.log.WithField("count", len(fires)).Debug("reminders scheduled")
	return nil
}

// Clear removes all of this app's pending reminder requests.
func (b *Bridge) Clear(ctx context.Context) error {
	return b.clearOwn(ctx)
}

func (b *Bridge) clearOwn(ctx context.Context) error {
	pending, err := b.scheduler.PendingRequests(ctx)
	if err != nil {
		return fmt.Errorf("listing pending notifications: %w", err)
	}

	var ours []string
	for _, id := range pending {
		if strings.HasPrefix(id, IdentifierPrefix) {
			ours = append(ours, id)
		}
	}
	if len(ours) == 0 {
		return nil
	}

	if err := b.scheduler.RemoveRequests(ctx, ours); err != nil {
		return fmt.Errorf("removing pending notifications: %w", err)
	}
	return nil
}

func (b *Bridge) setPermission(p model.PermissionState) {
	b.mu.Lock()
	b.permission = p
	b.mu.Unlock()
}
