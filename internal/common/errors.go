package common

import "errors"

var (
	// ErrOwnerMismatch is returned when a request names an owner other than
	// the authenticated one.
	ErrOwnerMismatch = errors.New("owner mismatch")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
