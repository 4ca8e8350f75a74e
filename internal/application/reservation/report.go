package reservation

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Report summarizes a sweep pass. Per-item failures are collected rather than
// aborting the pass.
type Report struct {
	Items        int
	Reservations int
	Notified     int
	Failed       int

	errs *multierror.Error
}

func (r *Report) fail(itemID string, err error) {
	r.Failed++
	r.errs = multierror.Append(r.errs, fmt.Errorf("item %s: %w", itemID, err))
}

// Err returns the collected per-item failures, or nil.
func (r Report) Err() error {
	return r.errs.ErrorOrNil()
}
