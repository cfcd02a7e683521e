// Package cli provides the interactive voicesync client.
//
// It wires configuration, the local SQLite store, the remote store (the
// voicesync server or an S3 bucket) and the background scheduler, then
// runs a small REPL:
//
//	open <voiceId> [display name...]   record that a profile was opened
//	list                               show discovered voices
//	sync                               reconcile with the remote store now
//	status                             show mode, owner and last sync
//	help                               list commands
//	exit | quit                        leave
//
// The REPL is started via App.Run, which blocks until the user exits.
package cli
