package reconcile

import (
	"sync"
	"testing"

	"github.com/dmitrijs2005/voicesync/internal/voices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func local(id, first, last string) voices.Record {
	return voices.Record{VoiceID: id, DisplayName: "name-" + id, FirstDiscoveredAt: first, LastOpenedAt: last}
}

func remote(id, first, last string) voices.RemoteRecord {
	return voices.RemoteRecord{UserID: "owner", VoiceID: id, FirstDiscoveredAt: first, LastOpenedAt: last}
}

func ids(records []voices.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.VoiceID)
	}
	return out
}

func TestMerge_OverlapTakesMinFirstAndMaxLast(t *testing.T) {
	res := Merge(
		[]voices.Record{local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-03T00:00:00.000Z", "2024-01-04T00:00:00.000Z")},
	)

	require.Len(t, res.Merged, 1)
	m := res.Merged[0]
	assert.Equal(t, "2024-01-01T00:00:00.000Z", m.FirstDiscoveredAt)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", m.LastOpenedAt)
	assert.Equal(t, "name-v1", m.DisplayName)
	assert.True(t, m.Synced)

	require.Len(t, res.Upserts, 1)
	assert.Equal(t, voices.RemoteRecord{
		UserID:            "owner",
		VoiceID:           "v1",
		FirstDiscoveredAt: "2024-01-01T00:00:00.000Z",
		LastOpenedAt:      "2024-01-05T00:00:00.000Z",
	}, res.Upserts[0])
}

func TestMerge_MinMaxRegardlessOfSide(t *testing.T) {
	// remote holds the earlier first and the later last
	res := Merge(
		[]voices.Record{local("v1", "2024-01-03T00:00:00.000Z", "2024-01-04T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")},
	)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", res.Merged[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", res.Merged[0].LastOpenedAt)
	assert.Empty(t, res.Upserts, "remote already holds the merged values")
}

func TestMerge_MixedFieldWinners(t *testing.T) {
	res := Merge(
		[]voices.Record{local("v1", "2024-01-01T00:00:00.000Z", "2024-01-02T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-02T00:00:00.000Z", "2024-01-09T00:00:00.000Z")},
	)

	require.Len(t, res.Upserts, 1)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", res.Upserts[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-09T00:00:00.000Z", res.Upserts[0].LastOpenedAt)
}

func TestMerge_IdenticalIsIdempotent(t *testing.T) {
	in := []voices.Record{
		local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z"),
		local("v2", "2024-01-02T00:00:00.000Z", "2024-01-03T00:00:00.000Z"),
	}
	for i := range in {
		in[i].Synced = true
	}
	rem := []voices.RemoteRecord{
		remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z"),
		remote("v2", "2024-01-02T00:00:00.000Z", "2024-01-03T00:00:00.000Z"),
	}

	res := Merge(in, rem)

	assert.Empty(t, res.Upserts)
	assert.Equal(t, in, res.Merged)
}

func TestMerge_EquivalentInstantsInDifferentTextQueueUpsert(t *testing.T) {
	// equal instants keep the local text, which differs from the remote text
	res := Merge(
		[]voices.Record{local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00Z", "2024-01-05T00:00:00Z")},
	)

	require.Len(t, res.Upserts, 1)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", res.Upserts[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", res.Upserts[0].LastOpenedAt)
}

func TestMerge_ComparesInstantsNotStrings(t *testing.T) {
	// "+02:00" at 01:00 is 2023-12-31T23:00Z, earlier than the remote value
	// even though it sorts later as a string.
	res := Merge(
		[]voices.Record{local("v1", "2024-01-01T01:00:00+02:00", "2024-01-05T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")},
	)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "2024-01-01T01:00:00+02:00", res.Merged[0].FirstDiscoveredAt)
	require.Len(t, res.Upserts, 1)
}

func TestMerge_NormalizedLegacyTimestamps(t *testing.T) {
	// local values came from epoch milliseconds normalized at load time
	first := voices.FromEpochMillis(1704067200000) // 2024-01-01
	last := voices.FromEpochMillis(1704844800000)  // 2024-01-10

	res := Merge(
		[]voices.Record{local("v1", first, last)},
		[]voices.RemoteRecord{remote("v1", "2024-01-03T00:00:00+00:00", "2024-01-04T00:00:00+00:00")},
	)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", res.Merged[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-10T00:00:00.000Z", res.Merged[0].LastOpenedAt)
	require.Len(t, res.Upserts, 1)
}

func TestMerge_UnparsableKeepsLocal(t *testing.T) {
	res := Merge(
		[]voices.Record{local("v1", "garbage", "2024-01-05T00:00:00.000Z")},
		[]voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-09T00:00:00.000Z")},
	)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "garbage", res.Merged[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-09T00:00:00.000Z", res.Merged[0].LastOpenedAt)
}

func TestMerge_LocalDuplicatesFirstWins(t *testing.T) {
	first := local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")
	first.DisplayName = "first"
	second := local("v1", "2023-01-01T00:00:00.000Z", "2024-02-01T00:00:00.000Z")
	second.DisplayName = "second"

	res := Merge([]voices.Record{first, second}, nil)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "first", res.Merged[0].DisplayName)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", res.Merged[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", res.Merged[0].LastOpenedAt)
	require.Len(t, res.Upserts, 1)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", res.Upserts[0].LastOpenedAt)
}

func TestMerge_RemoteDuplicatesLastWins(t *testing.T) {
	res := Merge(nil, []voices.RemoteRecord{
		remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-02T00:00:00.000Z"),
		remote("v1", "2024-01-03T00:00:00.000Z", "2024-01-04T00:00:00.000Z"),
	})

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "2024-01-03T00:00:00.000Z", res.Merged[0].FirstDiscoveredAt)
	assert.Equal(t, "2024-01-04T00:00:00.000Z", res.Merged[0].LastOpenedAt)
}

func TestMerge_LocalOnlyQueued(t *testing.T) {
	v1 := local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")
	v1.Synced = true
	v2 := local("v2", "2024-01-02T00:00:00.000Z", "2024-01-06T00:00:00.000Z")
	v2.Synced = true

	res := Merge(
		[]voices.Record{v1, v2},
		[]voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z")},
	)

	require.Len(t, res.Merged, 2)
	require.Len(t, res.Upserts, 1)
	assert.Equal(t, voices.RemoteRecord{
		UserID:            "",
		VoiceID:           "v2",
		FirstDiscoveredAt: "2024-01-02T00:00:00.000Z",
		LastOpenedAt:      "2024-01-06T00:00:00.000Z",
	}, res.Upserts[0])

	for _, m := range res.Merged {
		switch m.VoiceID {
		case "v1":
			assert.True(t, m.Synced)
		case "v2":
			assert.False(t, m.Synced)
		}
	}
}

func TestMerge_RemoteOnlyAdopted(t *testing.T) {
	res := Merge(nil, []voices.RemoteRecord{remote("v1", "2024-01-10T00:00:00.000Z", "2024-01-12T00:00:00.000Z")})

	require.Len(t, res.Merged, 1)
	assert.Equal(t, voices.Record{
		VoiceID:           "v1",
		DisplayName:       voices.UnknownName,
		FirstDiscoveredAt: "2024-01-10T00:00:00.000Z",
		LastOpenedAt:      "2024-01-12T00:00:00.000Z",
		Synced:            true,
	}, res.Merged[0])
	assert.Empty(t, res.Upserts)
}

func TestMerge_EmptyRemoteQueuesEverything(t *testing.T) {
	in := []voices.Record{
		local("v1", "2024-01-01T00:00:00.000Z", "2024-01-05T00:00:00.000Z"),
		local("v2", "2024-01-01T00:00:00.000Z", "2024-01-10T00:00:00.000Z"),
		local("v3", "2024-01-01T00:00:00.000Z", "2024-01-08T00:00:00.000Z"),
	}

	res := Merge(in, nil)

	assert.Equal(t, []string{"v2", "v3", "v1"}, ids(res.Merged))
	assert.Len(t, res.Upserts, 3)
	for _, m := range res.Merged {
		assert.False(t, m.Synced)
	}
	for _, u := range res.Upserts {
		assert.Empty(t, u.UserID)
	}
}

func TestMerge_BothEmpty(t *testing.T) {
	res := Merge(nil, nil)
	assert.Empty(t, res.Merged)
	assert.Empty(t, res.Upserts)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	in := []voices.Record{local("v1", "2024-01-03T00:00:00.000Z", "2024-01-04T00:00:00.000Z")}
	rem := []voices.RemoteRecord{remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-09T00:00:00.000Z")}
	inCopy := append([]voices.Record(nil), in...)
	remCopy := append([]voices.RemoteRecord(nil), rem...)

	_ = Merge(in, rem)

	assert.Equal(t, inCopy, in)
	assert.Equal(t, remCopy, rem)
}

func TestMerge_SortedByLastOpenedDescending(t *testing.T) {
	res := Merge(
		[]voices.Record{
			local("a", "2024-01-01T00:00:00.000Z", "2024-01-02T00:00:00.000Z"),
			local("b", "2024-01-01T00:00:00.000Z", "not-a-date"),
		},
		[]voices.RemoteRecord{
			remote("c", "2024-01-01T00:00:00.000Z", "2024-03-01T00:00:00.000Z"),
			remote("d", "2024-01-01T00:00:00.000Z", "2024-02-01T00:00:00.000Z"),
		},
	)

	assert.Equal(t, []string{"c", "d", "a", "b"}, ids(res.Merged))
}

func TestSortByLastOpened_StableOnTies(t *testing.T) {
	records := []voices.Record{
		local("x", "", "2024-01-01T00:00:00.000Z"),
		local("y", "", "2024-01-01T00:00:00Z"),
		local("z", "", "2024-01-02T00:00:00.000Z"),
	}
	SortByLastOpened(records)
	assert.Equal(t, []string{"z", "x", "y"}, ids(records))
}

func TestMerge_ConcurrentCallsAgree(t *testing.T) {
	in := []voices.Record{
		local("v1", "2024-01-03T00:00:00.000Z", "2024-01-04T00:00:00.000Z"),
		local("v2", "2024-01-01T00:00:00.000Z", "2024-01-02T00:00:00.000Z"),
	}
	rem := []voices.RemoteRecord{
		remote("v1", "2024-01-01T00:00:00.000Z", "2024-01-09T00:00:00.000Z"),
		remote("v3", "2024-01-05T00:00:00.000Z", "2024-01-06T00:00:00.000Z"),
	}
	want := Merge(in, rem)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Merge(in, rem)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
