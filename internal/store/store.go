package store

import "context"

// KV is the key-value persistence contract consumed by the persistence
// gateway. Get returns (nil, nil) for an absent key; Set overwrites
// unconditionally (last writer wins, no merge).
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
