package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrMixedOwners  = errors.New("upsert batch spans more than one owner")
)
