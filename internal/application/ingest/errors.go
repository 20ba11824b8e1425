package ingest

import "errors"

var (
	ErrCycleInProgress   = errors.New("import cycle already in progress")
	ErrNoCompletedCycles = errors.New("no completed import cycles yet")
)
