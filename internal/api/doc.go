// Package api defines the wire contract between the voicesync client and
// server: the VoiceStore gRPC service, its request/response messages and
// the JSON codec they travel with.
//
// Messages are plain Go structs encoded with encoding/json under the gRPC
// content-subtype "json" (content-type application/grpc+json). The service
// descriptor is declared by hand, so no protoc step is involved. The
// standard gRPC health service is served alongside and keeps the default
// protobuf codec.
package api
