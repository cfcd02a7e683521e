package services

import "errors"

var (
	ErrOffline     = errors.New("offline")
	ErrRemoteRead  = errors.New("remote read failed")
	ErrRemoteWrite = errors.New("remote write failed")
	ErrLocalWrite  = errors.New("local write failed")
)
