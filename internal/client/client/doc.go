// Package client contains the device-side building blocks that talk to the
// outside world.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic remote store contract (see the Client interface):
//     Ping, FetchVoices, UpsertVoices and Close.
//  2. A gRPC implementation (see GRPCClient) that injects the access token
//     via an interceptor, probes reachability with the standard health
//     service and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrMixedOwners.
//
// All operations accept context.Context; deadlines are the transport's.
package client
