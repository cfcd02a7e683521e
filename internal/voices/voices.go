// Package voices defines the discovered-voice record in its two storage
// representations (local and remote) and the timestamp helpers shared by
// the reconciler, the local state holder and the transports.
package voices

// UnknownName is shown for a voice whose display name could not be resolved.
const UnknownName = "Unknown"

// Record is the local form of a discovered voice. Ownership is implicit:
// every record on a device belongs to that device's user.
type Record struct {
	// VoiceID identifies the discovered counterpart.
	VoiceID string `json:"voiceId"`

	// DisplayName is cosmetic and never takes part in a merge.
	DisplayName string `json:"displayName"`

	// FirstDiscoveredAt is the ISO-8601 instant of the first-ever open.
	FirstDiscoveredAt string `json:"firstDiscoveredAt"`

	// LastOpenedAt is the ISO-8601 instant of the most recent open.
	LastOpenedAt string `json:"lastOpenedAt"`

	// Synced reports whether these exact values are known to exist remotely.
	Synced bool `json:"synced"`

	// Dirty is a legacy marker kept for stored data compatibility.
	// Nothing in this module writes it.
	Dirty *bool `json:"dirty,omitempty"`
}

// RemoteRecord is the remote form of a discovered voice: one row per
// (owner, voice) pair, without a display name.
type RemoteRecord struct {
	UserID            string `json:"userId"`
	VoiceID           string `json:"voiceId"`
	FirstDiscoveredAt string `json:"firstDiscoveredAt"`
	LastOpenedAt      string `json:"lastOpenedAt"`
}

// Remote converts a local record into its remote form for the given owner.
func (r Record) Remote(userID string) RemoteRecord {
	return RemoteRecord{
		UserID:            userID,
		VoiceID:           r.VoiceID,
		FirstDiscoveredAt: r.FirstDiscoveredAt,
		LastOpenedAt:      r.LastOpenedAt,
	}
}
