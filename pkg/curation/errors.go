package curation

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a repository is listed in no category.
var ErrNotFound = errors.New("repository not found in any category")

// LoadError reports a store that could not be read or parsed.
type LoadError struct {
	Store string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Store, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed provider call. Target is the repository id or
// organization the call was made for.
type FetchError struct {
	Op     string
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
