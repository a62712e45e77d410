package verify

import (
	"time"
)

// Status of a single target check
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records the outcome of one target check
type Result struct {
	Target     Target
	Status     Status
	Err        error
	Screenshot string
	Width      int
	Height     int
	Duration   time.Duration
}

// Report is the in-memory outcome of a verification run. It is printed as a
// short summary and inspected by callers; it is never written to disk.
type Report struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Results   []Result

	// Err is the first failure of the run, nil on success
	Err error
}

func newReport(runID string, targets []Target) *Report {
	results := make([]Result, len(targets))
	for i, t := range targets {
		results[i] = Result{Target: t, Status: StatusSkipped}
	}
	return &Report{
		RunID:     runID,
		StartTime: time.Now(),
		Results:   results,
	}
}

// fail records err against the report, keeping the first failure.
func (r *Report) fail(err error) {
	if r.Err == nil {
		r.Err = err
	}
}

func (r *Report) finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Counts returns how many targets passed, failed and were skipped.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Succeeded reports whether every target passed and nothing else failed.
func (r *Report) Succeeded() bool {
	if r.Err != nil {
		return false
	}
	passed, _, _ := r.Counts()
	return passed == len(r.Results)
}
