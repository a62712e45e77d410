package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/pagecheck/pkg/browser"
)

// Stage is the step of a check that failed.
type Stage string

const (
	StageLaunch     Stage = "launch"
	StageNavigate   Stage = "navigate"
	StageWait       Stage = "wait"
	StageScreenshot Stage = "screenshot"
	StageAborted    Stage = "aborted"
)

// Failure is the single error type of a verification run. Target is empty
// when the failure is not tied to one page (launch, cancellation).
type Failure struct {
	Target string
	Stage  Stage
	Err    error
}

func (f *Failure) Error() string {
	if f.Target == "" {
		return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", f.Target, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Timeout reports whether the failure was caused by a navigation or wait
// exceeding its time budget.
func (f *Failure) Timeout() bool {
	return errors.Is(f.Err, browser.ErrTimeout) || errors.Is(f.Err, context.DeadlineExceeded)
}

func newFailure(target string, stage Stage, err error) *Failure {
	return &Failure{Target: target, Stage: stage, Err: err}
}
