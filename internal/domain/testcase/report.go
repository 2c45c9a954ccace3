package testcase

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the decision for one case.
type Outcome struct {
	Case       Case
	Passed     bool
	MatchedBy  string
	MatchRank  int // 1-based rank of the matching hit; 0 when nothing matched
	Candidates []string
	Err        error // query-time failure; counts as a failed case
}

// Report accumulates outcomes of one validation run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Outcomes []Outcome
}

// NewReport starts an empty report with a fresh run id.
func NewReport(now time.Time) *Report {
	return &Report{RunID: uuid.NewString(), Started: now}
}

// Add records one outcome.
func (r *Report) Add(o Outcome) { r.Outcomes = append(r.Outcomes, o) }

// Total returns the number of recorded cases.
func (r *Report) Total() int { return len(r.Outcomes) }

// PassedCount returns the number of passing cases.
func (r *Report) PassedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing cases, errored ones included.
func (r *Report) FailedCount() int { return r.Total() - r.PassedCount() }

// ErroredCount returns the number of cases whose query failed.
func (r *Report) ErroredCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Failed is the run-level failure signal.
func (r *Report) Failed() bool { return r.FailedCount() > 0 }
