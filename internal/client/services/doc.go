// Package services contains the client-side application services of
// voicesync.
//
// SyncService sequences one reconciliation round against the remote store:
// offline pre-flight, remote read, merge, batched write-back and local
// commit. OnlineStatus keeps the connectivity signal SyncService consults
// before touching the network.
//
// Every failure is soft. A failed round reports the caller's original local
// set so the caller can keep working on it, and nothing is persisted
// locally unless the remote store has durably accepted the merge.
package services
