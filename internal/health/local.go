package health

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nhle/hydration/internal/store"
)

// LocalStore is the shipped Datastore implementation: samples land in the
// local SQLite health-sample table instead of a platform health store.
// Authorization is granted on first request and remembered for the
// process lifetime, mimicking a platform permission prompt.
type LocalStore struct {
	db *store.SQLiteStore

	mu      sync.Mutex
	granted bool
}

// NewLocalStore returns a LocalStore writing through the given store.
func NewLocalStore(db *store.SQLiteStore) *LocalStore {
	return &LocalStore{db: db}
}

func (l *LocalStore) IsAvailable(context.Context) bool {
	return l.db != nil
}

func (l *LocalStore) AuthorizationStatus(context.Context) AuthorizationStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.granted {
		return StatusAuthorized
	}
	return StatusNotDetermined
}

func (l *LocalStore) RequestAuthorization(context.Context) (bool, error) {
	l.mu.Lock()
	l.granted = true
	l.mu.Unlock()
	return true, nil
}

func (l *LocalStore) SaveSample(ctx context.Context, sample Sample) error {
	return l.db.InsertHealthSample(ctx, store.HealthSample{
		ID:       uuid.New().String(),
		VolumeML: sample.VolumeML,
		StartAt:  sample.Start,
		EndAt:    sample.End,
	})
}
