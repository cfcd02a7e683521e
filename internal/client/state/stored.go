package state

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// storedRecord mirrors voices.Record as found on disk, where timestamps may
// still be legacy epoch-millisecond numbers.
type storedRecord struct {
	VoiceID           string          `json:"voiceId"`
	DisplayName       string          `json:"displayName"`
	FirstDiscoveredAt json.RawMessage `json:"firstDiscoveredAt"`
	LastOpenedAt      json.RawMessage `json:"lastOpenedAt"`
	Synced            bool            `json:"synced"`
	Dirty             *bool           `json:"dirty,omitempty"`
}

func (sr storedRecord) normalize() (voices.Record, error) {
	if sr.VoiceID == "" {
		return voices.Record{}, fmt.Errorf("missing voiceId")
	}
	first, err := voices.NormalizeTimestamp(sr.FirstDiscoveredAt)
	if err != nil {
		return voices.Record{}, fmt.Errorf("firstDiscoveredAt: %w", err)
	}
	last, err := voices.NormalizeTimestamp(sr.LastOpenedAt)
	if err != nil {
		return voices.Record{}, fmt.Errorf("lastOpenedAt: %w", err)
	}
	return voices.Record{
		VoiceID:           sr.VoiceID,
		DisplayName:       sr.DisplayName,
		FirstDiscoveredAt: first,
		LastOpenedAt:      last,
		Synced:            sr.Synced,
		Dirty:             sr.Dirty,
	}, nil
}
