package report

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSchema means the export contains none of the recognized root
	// objects. Callers report it as "no matching data".
	ErrNoSchema = errors.New("no recognized root object in export")
	// ErrEmptyResult means a root object was found but no element matched.
	ErrEmptyResult = errors.New("no matching data found in the export")
	// ErrInvalidDateFilter means the after-date filter is not a YYYY-MM-DD date.
	ErrInvalidDateFilter = errors.New("invalid date format")
)

// ElementDateError reports an element whose UPDATED stamp could not be read
// while a date filter was active. It aborts the whole build.
type ElementDateError struct {
	NodeType string
	Name     string
	Value    string
	Err      error
}

func (e *ElementDateError) Error() string {
	return fmt.Sprintf("malformed UPDATED %q on %s %q: %v", e.Value, e.NodeType, e.Name, e.Err)
}

func (e *ElementDateError) Unwrap() error {
	return e.Err
}

// IsNoData reports whether err means there is nothing to report, as opposed
// to a failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoSchema) || errors.Is(err, ErrEmptyResult)
}
