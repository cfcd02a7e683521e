// Package reconcile merges the local and remote copies of an owner's
// discovered voices into one authoritative snapshot and computes the
// upserts needed to bring the remote store in line with it.
//
// Merge is pure: it never mutates its inputs and holds no state, so it may
// be called concurrently from independent sync attempts.
package reconcile

import (
	"slices"

	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// Result is the outcome of a merge.
type Result struct {
	// Merged holds one record per distinct voice id, most recently opened first.
	Merged []voices.Record

	// Upserts lists every voice whose merged values are missing from, or
	// differ from, the remote store. UserID is empty for voices not yet
	// known remotely; the caller fills it in before writing.
	Upserts []voices.RemoteRecord
}

// Merge reconciles local and remote records of a single owner.
//
// Duplicate voice ids are tolerated on both sides: the first local
// occurrence wins, while the last remote occurrence wins.
func Merge(local []voices.Record, remote []voices.RemoteRecord) Result {
	res := Result{
		Merged:  make([]voices.Record, 0, len(local)+len(remote)),
		Upserts: make([]voices.RemoteRecord, 0),
	}

	byVoice := make(map[string]voices.RemoteRecord, len(remote))
	remoteOrder := make([]string, 0, len(remote))
	for _, r := range remote {
		if _, seen := byVoice[r.VoiceID]; !seen {
			remoteOrder = append(remoteOrder, r.VoiceID)
		}
		byVoice[r.VoiceID] = r
	}

	seenLocal := make(map[string]struct{}, len(local))
	for _, l := range local {
		if _, dup := seenLocal[l.VoiceID]; dup {
			continue
		}
		seenLocal[l.VoiceID] = struct{}{}

		r, ok := byVoice[l.VoiceID]
		if !ok {
			l.Synced = false
			res.Merged = append(res.Merged, l)
			res.Upserts = append(res.Upserts, l.Remote(""))
			continue
		}

		first := voices.Earlier(l.FirstDiscoveredAt, r.FirstDiscoveredAt)
		last := voices.Later(l.LastOpenedAt, r.LastOpenedAt)

		merged := l
		merged.FirstDiscoveredAt = first
		merged.LastOpenedAt = last
		merged.Synced = true
		res.Merged = append(res.Merged, merged)

		if first != r.FirstDiscoveredAt || last != r.LastOpenedAt {
			res.Upserts = append(res.Upserts, voices.RemoteRecord{
				UserID:            r.UserID,
				VoiceID:           r.VoiceID,
				FirstDiscoveredAt: first,
				LastOpenedAt:      last,
			})
		}

		delete(byVoice, l.VoiceID)
	}

	for _, id := range remoteOrder {
		r, ok := byVoice[id]
		if !ok {
			continue
		}
		res.Merged = append(res.Merged, voices.Record{
			VoiceID:           r.VoiceID,
			DisplayName:       lookupName(local, r.VoiceID),
			FirstDiscoveredAt: r.FirstDiscoveredAt,
			LastOpenedAt:      r.LastOpenedAt,
			Synced:            true,
		})
	}

	SortByLastOpened(res.Merged)
	return res
}

// SortByLastOpened orders records by LastOpenedAt descending. The sort is
// stable and records with an unparsable timestamp go last.
func SortByLastOpened(records []voices.Record) {
	slices.SortStableFunc(records, func(a, b voices.Record) int {
		ta, errA := voices.ParseInstant(a.LastOpenedAt)
		tb, errB := voices.ParseInstant(b.LastOpenedAt)
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return tb.Compare(ta)
	})
}

func lookupName(local []voices.Record, voiceID string) string {
	for _, l := range local {
		if l.VoiceID == voiceID && l.DisplayName != "" {
			return l.DisplayName
		}
	}
	return voices.UnknownName
}
