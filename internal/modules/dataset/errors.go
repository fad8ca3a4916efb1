package dataset

import (
	"errors"
	"fmt"
)

// ErrNoHeader indicates the resource has no header row.
var ErrNoHeader = errors.New("resource has no header row")

// ErrUnsupportedSource indicates the source scheme has no fetcher.
var ErrUnsupportedSource = errors.New("unsupported source")

// LoadError represents a failure while loading a dataset.
type LoadError struct {
	Source string
	Stage  string // "fetch", "parse"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q failed during %s: %v", e.Source, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(source, stage string, err error) *LoadError {
	return &LoadError{Source: source, Stage: stage, Err: err}
}
