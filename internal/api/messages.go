package api

import "github.com/dmitrijs2005/voicesync/internal/voices"

// VoiceRow is one discovered-voice row as stored remotely.
type VoiceRow struct {
	VoiceID           string `json:"voice_id"`
	FirstDiscoveredAt string `json:"first_discovered_at"`
	LastOpenedAt      string `json:"last_opened_at"`
}

// FetchVoicesRequest asks for every row of the authenticated owner.
type FetchVoicesRequest struct {
	UserID string `json:"user_id"`
}

type FetchVoicesResponse struct {
	UserID string     `json:"user_id"`
	Voices []VoiceRow `json:"voices"`
}

// UpsertVoicesRequest carries one batch; the server applies it atomically.
type UpsertVoicesRequest struct {
	UserID string     `json:"user_id"`
	Voices []VoiceRow `json:"voices"`
}

type UpsertVoicesResponse struct {
	Upserted int `json:"upserted"`
}

// RowFromRemote drops the owner, which travels once per request.
func RowFromRemote(r voices.RemoteRecord) VoiceRow {
	return VoiceRow{
		VoiceID:           r.VoiceID,
		FirstDiscoveredAt: r.FirstDiscoveredAt,
		LastOpenedAt:      r.LastOpenedAt,
	}
}

// Remote attaches the owner to a wire row.
func (r VoiceRow) Remote(userID string) voices.RemoteRecord {
	return voices.RemoteRecord{
		UserID:            userID,
		VoiceID:           r.VoiceID,
		FirstDiscoveredAt: r.FirstDiscoveredAt,
		LastOpenedAt:      r.LastOpenedAt,
	}
}
