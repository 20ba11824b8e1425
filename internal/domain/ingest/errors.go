package ingest

import "errors"

var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrFileUnreadable   = errors.New("file unreadable")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAlreadyClaimed   = errors.New("file already claimed")
	ErrRecordConflict   = errors.New("record conflicts with stored data")
)
