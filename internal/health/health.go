// Package health bridges new intake entries to an external health
// datastore. The push is strictly one-way and best-effort: a failed save
// is logged and dropped, never rolled back into the ledger.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hydration/internal/model"
)

// AuthorizationStatus is the tri-state reported by the capability itself.
type AuthorizationStatus string

const (
	StatusNotDetermined AuthorizationStatus = "notDetermined"
	StatusAuthorized    AuthorizationStatus = "authorized"
	StatusDenied        AuthorizationStatus = "denied"
)

// Sample is the datastore representation of one intake event.
type Sample struct {
	VolumeML int
	Start    time.Time
	End      time.Time
}

// Datastore is the external health-store capability consumed by the bridge.
type Datastore interface {
	IsAvailable(ctx context.Context) bool
	AuthorizationStatus(ctx context.Context) AuthorizationStatus
	RequestAuthorization(ctx context.Context) (bool, error)
	SaveSample(ctx context.Context, sample Sample) error
}

// pushTimeout bounds a single background sample push.
const pushTimeout = 10 * time.Second

// Bridge tracks the health permission state and forwards entries.
type Bridge struct {
	datastore Datastore
	log       *logrus.Entry

	mu         sync.Mutex
	permission model.PermissionState
}

// NewBridge returns a bridge in the unknown permission state.
func NewBridge(datastore Datastore, log *logrus.Logger) *Bridge {
	return &Bridge{
		datastore:  datastore,
		log:        log.WithField("component", "health"),
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
// whether the datastore is usable afterwards. An absent capability moves
// the state to unavailable without asking.
func (b *Bridge) RequestAccess(ctx context.Context) bool {
	if !b.datastore.IsAvailable(ctx) {
		b.setPermission(model.PermissionUnavailable)
		return false
	}

	if b.datastore.AuthorizationStatus(ctx) == StatusAuthorized {
		b.setPermission(model.PermissionAuthorized)
		return true
	}

	granted, err := b.datastore.RequestAuthorization(ctx)
	if err != nil {
		b.log.WithError(err).Warn("health authorization request failed")
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
// state. This is the only path that notices an external revocation; the
// bridge never assumes a previously granted permission still holds.
func (b *Bridge) RefreshStatus(ctx context.Context) model.PermissionState {
	if !b.datastore.IsAvailable(ctx) {
		b.setPermission(model.PermissionUnavailable)
		return model.PermissionUnavailable
	}

	switch b.datastore.AuthorizationStatus(ctx) {
	case StatusAuthorized:
		b.setPermission(model.PermissionAuthorized)
	case StatusDenied:
		b.setPermission(model.PermissionDenied)
	default:
		b.setPermission(model.PermissionUnknown)
	}
	return b.Permission()
}

// PushEntry forwards one entry to the datastore in the background. The
// caller's state is already committed; failures here are logged and
// swallowed.
func (b *Bridge) PushEntry(entry model.IntakeEntry) {
	if b.Permission() != model.PermissionAuthorized {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		err := b.datastore.SaveSample(ctx, Sample{
			VolumeML: entry.AmountML,
			Start:    entry.Timestamp,
			End:      entry.Timestamp,
		})
		if err != nil {
			b.log.WithError(err).WithField("entry_id", entry.ID).
				Warn("health sample push failed")
		}
	}()
}

func (b *Bridge) setPermission(p model.PermissionState) {
	b.mu.Lock()
	b.permission = p
	b.mu.Unlock()
}
