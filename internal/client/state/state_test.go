package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	delete(m.data, key)
	return nil
}

func newState(kv KV) *State { return New(kv, logging.Nop()) }

func TestLoad_Empty(t *testing.T) {
	s := newState(newMemKV())

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad_CorruptListIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.data[VoicesKey] = `{not json`
	s := newState(kv)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_NormalizesLegacyTimestamps(t *testing.T) {
	kv := newMemKV()
	kv.data[VoicesKey] = `[
		{"voiceId":"v1","displayName":"Ann","firstDiscoveredAt":1700000000000,"lastOpenedAt":"2024-01-02T00:00:00Z","synced":true},
		{"voiceId":"v2","displayName":"Bob","firstDiscoveredAt":"2024-01-01T00:00:00.000Z","lastOpenedAt":"2024-01-01T00:00:00.000Z","synced":false,"dirty":true}
	]`
	s := newState(kv)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2023-11-14T22:13:20.000Z", got[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-02T00:00:00Z", got[0].LastOpenedAt)
	assert.True(t, got[0].Synced)

	require.NotNil(t, got[1].Dirty)
	assert.True(t, *got[1].Dirty)
}

func TestLoad_DropsUnreadableEntries(t *testing.T) {
	kv := newMemKV()
	kv.data[VoicesKey] = `[
		{"voiceId":"v1","firstDiscoveredAt":"garbage","lastOpenedAt":"2024-01-01T00:00:00Z"},
		{"voiceId":"","firstDiscoveredAt":"2024-01-01T00:00:00Z","lastOpenedAt":"2024-01-01T00:00:00Z"},
		{"voiceId":"v3","firstDiscoveredAt":null,"lastOpenedAt":"2024-01-01T00:00:00Z"},
		{"voiceId":"v4","firstDiscoveredAt":"2024-01-01T00:00:00Z","lastOpenedAt":"2024-01-01T00:00:00Z"}
	]`
	s := newState(kv)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v4", got[0].VoiceID)
}

func TestLoad_StorageError(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("disk gone")
	s := newState(kv)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.getErr)
}

func TestSave_RoundTripAndNotify(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	recs := []voices.Record{{
		VoiceID:           "v1",
		DisplayName:       "Ann",
		FirstDiscoveredAt: "2024-01-01T00:00:00.000Z",
		LastOpenedAt:      "2024-01-02T00:00:00.000Z",
		Synced:            true,
	}}
	require.NoError(t, s.Save(context.Background(), recs))
	assert.Equal(t, 1, kv.sets)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	require.Len(t, events, 1)
	assert.Equal(t, EventVoicesChanged, events[0].Type)
	assert.Equal(t, recs, events[0].Records)
}

func TestSave_NilWritesEmptyList(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)

	require.NoError(t, s.Save(context.Background(), nil))
	assert.Equal(t, "[]", kv.data[VoicesKey])
}

func TestSave_ErrorDoesNotNotify(t *testing.T) {
	kv := newMemKV()
	kv.setErr = errors.New("read-only")
	s := newState(kv)

	called := false
	s.Subscribe(func(Event) { called = true })

	err := s.Save(context.Background(), []voices.Record{{VoiceID: "v1"}})
	require.Error(t, err)
	assert.False(t, called)
}

func TestRecordOpen_CreatesThenUpdates(t *testing.T) {
	s := newState(newMemKV())
	ctx := context.Background()

	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, err := s.RecordOpen(ctx, "v1", "Ann", t0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", rec.FirstDiscoveredAt)
	assert.Equal(t, rec.FirstDiscoveredAt, rec.LastOpenedAt)
	assert.False(t, rec.Synced)

	// pretend a sync happened
	recs, err := s.Load(ctx)
	require.NoError(t, err)
	recs[0].Synced = true
	require.NoError(t, s.Save(ctx, recs))

	t1 := t0.Add(time.Hour)
	rec, err = s.RecordOpen(ctx, "v1", "", t1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", rec.FirstDiscoveredAt)
	assert.Equal(t, "2024-03-01T11:00:00.000Z", rec.LastOpenedAt)
	assert.Equal(t, "Ann", rec.DisplayName)
	assert.False(t, rec.Synced)

	recs, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec, recs[0])
}

func TestRecordOpen_NewVoiceGoesFirst(t *testing.T) {
	s := newState(newMemKV())
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.RecordOpen(ctx, "v1", "Ann", t0)
	require.NoError(t, err)
	_, err = s.RecordOpen(ctx, "v2", "Bob", t0.Add(time.Minute))
	require.NoError(t, err)

	recs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "v2", recs[0].VoiceID)
	assert.Equal(t, "v1", recs[1].VoiceID)
}

func TestCommitSync(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)
	ctx := context.Background()

	var got []EventType
	s.Subscribe(func(ev Event) { got = append(got, ev.Type) })

	at := time.UnixMilli(1700000000123).UTC()
	recs := []voices.Record{{VoiceID: "v1", FirstDiscoveredAt: "2024-01-01T00:00:00Z", LastOpenedAt: "2024-01-01T00:00:00Z", Synced: true}}
	committed, err := s.CommitSync(ctx, nil, recs, at)
	require.NoError(t, err)
	assert.Equal(t, recs, committed)

	assert.Equal(t, []EventType{EventSynced}, got)
	assert.Equal(t, "1700000000123", kv.data[LastSyncKey])

	var stored []voices.Record
	require.NoError(t, json.Unmarshal([]byte(kv.data[VoicesKey]), &stored))
	assert.Equal(t, recs, stored)

	last, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(last))
}

func TestLastSync(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)
	ctx := context.Background()

	_, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	kv.data[LastSyncKey] = "yesterday"
	_, ok, err = s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, s.SetLastSync(ctx, at))
	got, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := newState(newMemKV())
	ctx := context.Background()

	var a, b int
	unsubA := s.Subscribe(func(Event) { a++ })
	s.Subscribe(func(Event) { b++ })

	require.NoError(t, s.Save(ctx, nil))
	unsubA()
	unsubA()
	require.NoError(t, s.Save(ctx, nil))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestSubscriber_CanReadStateFromCallback(t *testing.T) {
	s := newState(newMemKV())
	ctx := context.Background()

	var seen int
	s.Subscribe(func(Event) {
		recs, err := s.Load(ctx)
		require.NoError(t, err)
		seen = len(recs)
	})

	_, err := s.RecordOpen(ctx, "v1", "Ann", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestCommitSync_KeepsChangesMadeDuringRound(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	_, err := s.RecordOpen(ctx, "v1", "Ann", day(1))
	require.NoError(t, err)
	_, err = s.RecordOpen(ctx, "v3", "Cid", day(4))
	require.NoError(t, err)
	base, err := s.Load(ctx)
	require.NoError(t, err)

	// opens that land while the round talks to the remote
	_, err = s.RecordOpen(ctx, "v2", "Bob", day(2))
	require.NoError(t, err)
	_, err = s.RecordOpen(ctx, "v1", "", day(3))
	require.NoError(t, err)

	merged := []voices.Record{
		{VoiceID: "v3", DisplayName: "Cid", FirstDiscoveredAt: "2023-12-01T00:00:00.000Z", LastOpenedAt: "2024-01-04T00:00:00.000Z", Synced: true},
		{VoiceID: "v1", DisplayName: "Ann", FirstDiscoveredAt: "2023-12-25T00:00:00.000Z", LastOpenedAt: "2024-01-01T00:00:00.000Z", Synced: true},
		{VoiceID: "v9", DisplayName: voices.UnknownName, FirstDiscoveredAt: "2023-11-01T00:00:00.000Z", LastOpenedAt: "2023-11-02T00:00:00.000Z", Synced: true},
	}

	committed, err := s.CommitSync(ctx, base, merged, day(5))
	require.NoError(t, err)

	stored, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, committed)

	byID := map[string]voices.Record{}
	for _, r := range stored {
		byID[r.VoiceID] = r
	}
	require.Len(t, byID, 4)

	// untouched since the snapshot: takes the merged value
	assert.Equal(t, merged[0], byID["v3"])

	// reopened: never moves back in time, widened by the remote first open
	assert.Equal(t, "2024-01-03T00:00:00.000Z", byID["v1"].LastOpenedAt)
	assert.Equal(t, "2023-12-25T00:00:00.000Z", byID["v1"].FirstDiscoveredAt)
	assert.Equal(t, "Ann", byID["v1"].DisplayName)
	assert.False(t, byID["v1"].Synced)

	// new since the snapshot: kept, still to be pushed
	assert.Equal(t, "2024-01-02T00:00:00.000Z", byID["v2"].LastOpenedAt)
	assert.False(t, byID["v2"].Synced)

	// remote-only voice adopted
	assert.True(t, byID["v9"].Synced)

	ids := make([]string, 0, len(stored))
	for _, r := range stored {
		ids = append(ids, r.VoiceID)
	}
	assert.Equal(t, []string{"v3", "v1", "v2", "v9"}, ids)
}

func TestCommitSync_LoadErrorWritesNothing(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("locked")
	s := newState(kv)

	_, err := s.CommitSync(context.Background(), nil, []voices.Record{{VoiceID: "v1"}}, time.Now())
	require.Error(t, err)
	assert.Zero(t, kv.sets)
}

func TestReset(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)
	ctx := context.Background()

	_, err := s.RecordOpen(ctx, "v1", "Ann", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SetLastSync(ctx, time.Now()))
	kv.data["unrelated"] = "kept"

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	require.NoError(t, s.Reset(ctx))

	recs, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "kept", kv.data["unrelated"])
	require.Len(t, events, 1)
	assert.Equal(t, EventVoicesChanged, events[0].Type)
	assert.Empty(t, events[0].Records)
}

func TestReset_ErrorDoesNotNotify(t *testing.T) {
	kv := newMemKV()
	s := newState(kv)
	kv.setErr = errors.New("read-only")

	notified := false
	s.Subscribe(func(Event) { notified = true })

	require.Error(t, s.Reset(context.Background()))
	assert.False(t, notified)
}
