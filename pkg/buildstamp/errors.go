package buildstamp

import (
	"errors"
	"fmt"
)

// ErrVCSQuery matches every QueryError via errors.Is.
var ErrVCSQuery = errors.New("vcs query failed")

// QueryError is returned when the Provider cannot complete a query
// (not a working copy, missing path, I/O or transport failure).
type QueryError struct {
	Op   string // "timestamp" or "revision"
	Path string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrVCSQuery) true for any QueryError.
func (e *QueryError) Is(target error) bool {
	return target == ErrVCSQuery
}
