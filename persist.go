package kisan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by a Store when the key does not exist.
var ErrNotFound = errors.New("kisan: not found")

// Store is durable key-value storage for the snapshot and the language
// preference. Implementations live in the cache package.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value for key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Persister reads and writes the translation cache as one timestamped
// snapshot. It never returns errors: failures are logged and the caller
// carries on with whatever it has in memory.
type Persister struct {
	store  Store
	key    string
	expiry time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewPersister creates a Persister over store. An expiry <= 0 selects DefaultExpiry.
func NewPersister(store Store, expiry time.Duration, logger zerolog.Logger) *Persister {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Persister{
		store:  store,
		key:    SnapshotKey,
		expiry: expiry,
		now:    time.Now,
		logger: logger,
	}
}

// Load returns the persisted entries. An absent, malformed or expired
// record yields an empty map; an expired record is left in place for the
// next Save to overwrite.
func (p *Persister) Load(ctx context.Context) map[string]string {
	entries := make(map[string]string)
	if p == nil || p.store == nil {
		return entries
	}

	raw, err := p.store.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn().Err(&CacheError{Message: "load snapshot", Cause: err}).Msg("translation cache unavailable, starting empty")
		}
		return entries
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		p.logger.Warn().Err(&CacheError{Message: "decode snapshot", Cause: err}).Msg("ignoring malformed translation cache")
		return entries
	}

	if snap.Expired(p.now(), p.expiry) {
		p.logger.Debug().
			Time("saved_at", time.UnixMilli(snap.SavedAt)).
			Dur("expiry", p.expiry).
			Msg("translation cache expired")
		return entries
	}

	for k, v := range snap.Entries {
		entries[k] = v
	}
	p.logger.Debug().Int("entries", len(entries)).Msg("translation cache loaded")
	return entries
}

// Save writes entries with the current timestamp, replacing any previous record.
func (p *Persister) Save(ctx context.Context, entries map[string]string) {
	if p == nil || p.store == nil {
		return
	}

	snap := Snapshot{Entries: entries, SavedAt: p.now().UnixMilli()}
	if snap.Entries == nil {
		snap.Entries = map[string]string{}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		SnapshotSaves.WithLabelValues("error").Inc()
		p.logger.Warn().Err(&CacheError{Message: "encode snapshot", Cause: err}).Msg("failed to save translation cache")
		return
	}

	if err := p.store.Put(ctx, p.key, payload); err != nil {
		SnapshotSaves.WithLabelValues("error").Inc()
		p.logger.Warn().Err(&CacheError{Message: "save snapshot", Cause: err}).Msg("failed to save translation cache")
		return
	}

	SnapshotSaves.WithLabelValues("ok").Inc()
}

// Clear removes the persisted record.
func (p *Persister) Clear(ctx context.Context) {
	if p == nil || p.store == nil {
		return
	}
	if err := p.store.Delete(ctx, p.key); err != nil && !errors.Is(err, ErrNotFound) {
		p.logger.Warn().Err(&CacheError{Message: "delete snapshot", Cause: err}).Msg("failed to clear translation cache")
	}
}
