package driver

import (
	"fmt"
	"strings"

	"matter-go-light/internal/attr"
)

// PathError records a dispatch failure for one attribute.
type PathError struct {
	Path attr.Path
	Err  error
}

func (e PathError) Error() string {
	return e.Path.String() + ": " + e.Err.Error()
}

func (e PathError) Unwrap() error {
	return e.Err
}

// SyncError lists every attribute that failed to sync.
type SyncError struct {
	Failures []PathError
}

func (e *SyncError) Error() string {
	if len(e.Failures) == 1 {
		return "sync: " + e.Failures[0].Error()
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("sync: %d attributes failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *SyncError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// SyncDefaults dispatches every value in the tree, in tree order, so the
// light matches the stored state. All attributes are attempted; failures are
// collected into a *SyncError.
func (d *Driver) SyncDefaults() error {
	var failures []PathError
	count := 0
	for p, v := range d.tree.All() {
		count++
		if err := d.Update(p, v); err != nil {
			failures = append(failures, PathError{Path: p, Err: err})
		}
	}
	d.logger.Debug("synced defaults", "attributes", count, "failures", len(failures))
	if len(failures) > 0 {
		return &SyncError{Failures: failures}
	}
	return nil
}
