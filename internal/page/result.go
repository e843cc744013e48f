package page

import "github.com/v0xg/pagekit/internal/driver"

// Result is the outcome of a lookup: Found with a live handle, NotFound with
// the reason, or failed with an error that is neither.
type Result struct {
	el      driver.Element
	missing error
	err     error
}

// Found reports whether an element was resolved
func (r Result) Found() bool { return r.el != nil }

// Element returns the resolved handle, nil when not found
func (r Result) Element() driver.Element { return r.el }

// Reason returns why the element was not found, nil when it was
func (r Result) Reason() error { return r.missing }

// Err returns a failure other than absence, such as a lost session.
func (r Result) Err() error { return r.err }
