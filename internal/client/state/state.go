// Package state holds the device's copy of its discovered voices.
//
// State persists through a KV port (the metadata repository in production)
// and notifies subscribers after every change. Stored data is normalized
// on load: legacy epoch-millisecond timestamps become ISO-8601 strings and
// corrupt payloads are treated as an empty store.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/reconcile"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

const (
	VoicesKey   = "discovered_voices"
	LastSyncKey = "discovered_voices_last_sync"
)

// KV is the persistence port.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// EventType tells subscribers what changed.
type EventType string

const (
	EventVoicesChanged EventType = "voices_changed"
	EventSynced        EventType = "synced"
)

type Event struct {
	Type    EventType
	Records []voices.Record
	At      time.Time
}

type subscriber struct {
	id int
	fn func(Event)
}

// State is safe for concurrent use.
type State struct {
	kv     KV
	logger logging.Logger

	mu     sync.Mutex
	subsMu sync.Mutex
	subs   []subscriber
	nextID int
}

func New(kv KV, logger logging.Logger) *State {
	return &State{kv: kv, logger: logger.With("module", "state")}
}

// Subscribe registers fn for every subsequent event. The returned function
// removes the registration.
func (s *State) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *State) notify(ev Event) {
	s.subsMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Load returns the stored records. Corrupt data never surfaces as an
// error: an unreadable list is treated as empty and an entry with an
// unusable timestamp is dropped. Only storage failures are returned.
func (s *State) Load(ctx context.Context) ([]voices.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *State) load(ctx context.Context) ([]voices.Record, error) {
	raw, found, err := s.kv.Get(ctx, VoicesKey)
	if err != nil {
		return nil, fmt.Errorf("load voices: %w", err)
	}
	if !found || raw == "" {
		return []voices.Record{}, nil
	}

	var stored []storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn(ctx, "stored voices are corrupt, starting empty", "error", err)
		return []voices.Record{}, nil
	}

	out := make([]voices.Record, 0, len(stored))
	for _, sr := range stored {
		r, err := sr.normalize()
		if err != nil {
			s.logger.Warn(ctx, "dropping unreadable voice", "voice_id", sr.VoiceID, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Save replaces the stored list with records in a single write.
func (s *State) Save(ctx context.Context, records []voices.Record) error {
	s.mu.Lock()
	err := s.save(ctx, records)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Event{Type: EventVoicesChanged, Records: clone(records), At: time.Now()})
	return nil
}

func (s *State) save(ctx context.Context, records []voices.Record) error {
	if records == nil {
		records = []voices.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode voices: %w", err)
	}
	if err := s.kv.Set(ctx, VoicesKey, string(b)); err != nil {
		return fmt.Errorf("save voices: %w", err)
	}
	return nil
}

// CommitSync persists a synced set together with the sync instant and
// notifies subscribers with EventSynced.
//
// base is the snapshot the round started from and merged its result.
// Records opened while the round was in flight are not overwritten: a
// record that is new or differs from base keeps its current values, widened
// by the merged timestamps, and stays unsynced. Untouched records take the
// merged value. The committed list is returned.
func (s *State) CommitSync(ctx context.Context, base, merged []voices.Record, at time.Time) ([]voices.Record, error) {
	s.mu.Lock()
	current, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	records := rebase(current, base, merged)
	err = s.save(ctx, records)
	if err == nil {
		err = s.setLastSync(ctx, at)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(Event{Type: EventSynced, Records: clone(records), At: at})
	return clone(records), nil
}

func rebase(current, base, merged []voices.Record) []voices.Record {
	before := index(base)
	after := index(merged)

	out := make([]voices.Record, 0, len(merged)+len(current))
	seen := make(map[string]struct{}, len(merged)+len(current))

	for _, c := range current {
		if _, dup := seen[c.VoiceID]; dup {
			continue
		}
		seen[c.VoiceID] = struct{}{}

		m, synced := after[c.VoiceID]
		b, known := before[c.VoiceID]
		switch {
		case synced && known && sameRecord(b, c):
			out = append(out, m)
		case synced:
			c.FirstDiscoveredAt = voices.Earlier(c.FirstDiscoveredAt, m.FirstDiscoveredAt)
			c.LastOpenedAt = voices.Later(c.LastOpenedAt, m.LastOpenedAt)
			c.Synced = false
			out = append(out, c)
		default:
			c.Synced = false
			out = append(out, c)
		}
	}

	// remote-only voices, and anything the store no longer holds
	for _, m := range merged {
		if _, ok := seen[m.VoiceID]; ok {
			continue
		}
		seen[m.VoiceID] = struct{}{}
		out = append(out, m)
	}

	reconcile.SortByLastOpened(out)
	return out
}

// index maps voice ids to records, first occurrence winning.
func index(records []voices.Record) map[string]voices.Record {
	out := make(map[string]voices.Record, len(records))
	for _, r := range records {
		if _, ok := out[r.VoiceID]; !ok {
			out[r.VoiceID] = r
		}
	}
	return out
}

func sameRecord(a, b voices.Record) bool {
	if a.VoiceID != b.VoiceID ||
		a.DisplayName != b.DisplayName ||
		a.FirstDiscoveredAt != b.FirstDiscoveredAt ||
		a.LastOpenedAt != b.LastOpenedAt ||
		a.Synced != b.Synced {
		return false
	}
	if a.Dirty == nil || b.Dirty == nil {
		return a.Dirty == b.Dirty
	}
	return *a.Dirty == *b.Dirty
}

// RecordOpen registers that the owner opened voiceID's profile at now.
// A first open creates the record; later opens move LastOpenedAt forward.
// Either way the record becomes unsynced.
func (s *State) RecordOpen(ctx context.Context, voiceID, displayName string, now time.Time) (voices.Record, error) {
	ts := voices.FormatInstant(now)

	s.mu.Lock()
	records, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return voices.Record{}, err
	}

	var rec voices.Record
	idx := -1
	for i, r := range records {
		if r.VoiceID == voiceID {
			idx = i
			break
		}
	}

	if idx < 0 {
		rec = voices.Record{
			VoiceID:           voiceID,
			DisplayName:       displayName,
			FirstDiscoveredAt: ts,
			LastOpenedAt:      ts,
		}
		records = append([]voices.Record{rec}, records...)
	} else {
		rec = records[idx]
		rec.LastOpenedAt = ts
		rec.Synced = false
		if displayName != "" {
			rec.DisplayName = displayName
		}
		records[idx] = rec
	}

	err = s.save(ctx, records)
	s.mu.Unlock()
	if err != nil {
		return voices.Record{}, err
	}

	s.notify(Event{Type: EventVoicesChanged, Records: clone(records), At: now})
	return rec, nil
}

// Reset forgets the local voices and the last sync instant. The remote
// copy is untouched, so the next sync adopts it again.
func (s *State) Reset(ctx context.Context) error {
	s.mu.Lock()
	var err error
	for _, key := range []string{VoicesKey, LastSyncKey} {
		if err = s.kv.Delete(ctx, key); err != nil {
			err = fmt.Errorf("reset: %w", err)
			break
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Event{Type: EventVoicesChanged, Records: []voices.Record{}, At: time.Now()})
	return nil
}

// LastSync returns the instant of the last successful sync, if any.
func (s *State) LastSync(ctx context.Context) (time.Time, bool, error) {
	raw, found, err := s.kv.Get(ctx, LastSyncKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load last sync: %w", err)
	}
	if !found {
		return time.Time{}, false, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn(ctx, "stored last sync is corrupt", "value", raw)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// SetLastSync stores t as epoch milliseconds.
func (s *State) SetLastSync(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLastSync(ctx, t)
}

func (s *State) setLastSync(ctx context.Context, t time.Time) error {
	if err := s.kv.Set(ctx, LastSyncKey, strconv.FormatInt(t.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("save last sync: %w", err)
	}
	return nil
}

func clone(records []voices.Record) []voices.Record {
	out := make([]voices.Record, len(records))
	copy(out, records)
	return out
}
