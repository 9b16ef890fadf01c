package harness

import (
	"github.com/roach88/recordsync/internal/projection"
	"github.com/roach88/recordsync/internal/record"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Records holds the projected records of live objects in dataset order.
	Records []*record.Record `json:"records"`

	// Diagnostics holds every field diagnostic, grouped by record in dataset order.
	Diagnostics []projection.Diagnostic `json:"diagnostics,omitempty"`

	// Deletions holds the identities of tombstoned objects in dataset order.
	Deletions []record.RecordID `json:"deletions,omitempty"`

	// Skipped holds objects that could not be identified.
	Skipped []SkippedObject `json:"skipped,omitempty"`

	// Fatal is the projection error that aborted the run, if any.
	Fatal error `json:"-"`
}

// SkippedObject is a dataset object left out of the run.
type SkippedObject struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Code  string `json:"code"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []*record.Record{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Record returns the projected record with the given "owner/zone/name" identity.
func (r *Result) Record(id string) (*record.Record, bool) {
	for _, rec := range r.Records {
		if rec.ID.String() == id {
			return rec, true
		}
	}
	return nil, false
}
