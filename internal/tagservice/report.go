package tagservice

import (
	"errors"
	"time"

	"github.com/zjrosen/tagset/internal/domain/tags"
)

// TagFailure pairs a tag with the error that prevented its resolution.
type TagFailure struct {
	Key tags.Key
	Err error
}

// LoadReport summarizes one LoadAll or Reload run.
type LoadReport struct {
	RunID      string
	Generation uint64
	StartedAt  time.Time
	Duration   time.Duration
	Resolved   []tags.Key
	Failed     []TagFailure
	Removed    []tags.Key
}

// Total returns the number of tags attempted.
func (r *LoadReport) Total() int {
	return len(r.Resolved) + len(r.Failed)
}

// Err joins every failure, or returns nil when all tags resolved.
func (r *LoadReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}
