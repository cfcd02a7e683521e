// Package common contains constants and sentinel errors shared by the
// voicesync client and server.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"
