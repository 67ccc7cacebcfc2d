// Package persist is the stateless codec between the core state and the
// key-value store. It holds no copy of the state: every save re-encodes
// the snapshot it is handed, and every load decodes from scratch with safe
// defaults when a blob is absent or corrupt.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nhle/hydration/internal/ledger"
	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/store"
)

const (
	keyLedger   = "ledger"
	keySettings = "settings"

	// MaxPersistedEntries caps the persisted entry set. In-memory state is
	// never trimmed mid-session; the cap applies to the encoded form only.
	MaxPersistedEntries = 1000
)

// Gateway serializes ledger and settings state to a KV store.
type Gateway struct {
	kv store.KV
}

// New returns a gateway writing to the given KV store.
func New(kv store.KV) *Gateway {
	return &Gateway{kv: kv}
}

// Save encodes and writes the ledger snapshot and settings. The snapshot's
// entry set is capped to the most recent MaxPersistedEntries by timestamp
// before encoding.
func (g *Gateway) Save(ctx context.Context, snap ledger.Snapshot, settings model.Settings) error {
	snap.Entries = trimEntries(snap.Entries, MaxPersistedEntries)

	ledgerBlob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding ledger state: %w", err)
	}
	settingsBlob, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := g.kv.Set(ctx, keyLedger, ledgerBlob); err != nil {
		return fmt.Errorf("writing ledger state: %w", err)
	}
	if err := g.kv.Set(ctx, keySettings, settingsBlob); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Load reads and decodes the persisted state. Absent or undecodable blobs
// fall back to an empty ledger snapshot and default settings; decode
// failures never surface as errors.
func (g *Gateway) Load(ctx context.Context) (ledger.Snapshot, model.Settings, error) {
	snap := ledger.Snapshot{}
	settings := model.DefaultSettings()

	ledgerBlob, err := g.kv.Get(ctx, keyLedger)
	if err != nil {
		return snap, settings, fmt.Errorf("reading ledger state: %w", err)
	}
	if len(ledgerBlob) > 0 {
		var decoded ledger.Snapshot
		if err := json.Unmarshal(ledgerBlob, &decoded); err == nil {
			decoded.Entries = trimEntries(decoded.Entries, MaxPersistedEntries)
			snap = decoded
		}
	}

	settingsBlob, err := g.kv.Get(ctx, keySettings)
	if err != nil {
		return snap, settings, fmt.Errorf("reading settings: %w", err)
	}
	if len(settingsBlob) > 0 {
		var decoded model.Settings
		if err := json.Unmarshal(settingsBlob, &decoded); err == nil {
			decoded.Normalize()
			settings = decoded
		}
	}

	return snap, settings, nil
}

// trimEntries keeps the max most recent entries by timestamp. The returned
// slice preserves the original recording order of the survivors.
func trimEntries(entries []model.IntakeEntry, max int) []model.IntakeEntry {
	if len(entries) <= max {
		return entries
	}

	byNewest := make([]model.IntakeEntry, len(entries))
	copy(byNewest, entries)
	sort.SliceStable(byNewest, func(i, j int) bool {
		return byNewest[i].Timestamp.After(byNewest[j].Timestamp)
	})

	keep := make(map[string]struct{}, max)
	for _, e := range byNewest[:max] {
		keep[e.ID] = struct{}{}
	}

	trimmed := make([]model.IntakeEntry, 0, max)
	for _, e := range entries {
		if _, ok := keep[e.ID]; ok {
			trimmed = append(trimmed, e)
		}
	}
	return trimmed
}
