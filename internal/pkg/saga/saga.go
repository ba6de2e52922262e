// Package saga runs a linear sequence of write steps with compensations.
//
// A required step failing aborts the run and compensates every completed
// step in reverse order. A tolerable step failing leaves everything applied
// and marks the run partial; later steps still run.
package saga

import (
	"context"
	"fmt"
)

type Outcome int

const (
	Completed Outcome = iota
	Aborted
	Partial
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Partial:
		return "partial"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	Tolerable  bool
}

// StepError records a failed step or compensation.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e StepError) Unwrap() error { return e.Err }

type Result struct {
	Outcome Outcome
	// Failed holds the step failures: the aborting step, or every tolerable failure.
	Failed []StepError
	// Compensation holds compensations that themselves failed. The
	// corresponding side effects are left behind.
	Compensation []StepError
}

// Err returns the first step failure, or nil when the run completed.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return r.Failed[0]
}

// Orphaned reports whether an aborted run left side effects behind.
func (r Result) Orphaned() bool {
	return r.Outcome == Aborted && len(r.Compensation) > 0
}

func Run(ctx context.Context, steps ...Step) Result {
	var (
		res  Result
		done []Step
	)
	for _, st := range steps {
		err := st.Do(ctx)
		if err == nil {
			done = append(done, st)
			continue
		}
		if st.Tolerable {
			res.Outcome = Partial
			res.Failed = append(res.Failed, StepError{Step: st.Name, Err: err})
			continue
		}

		res.Outcome = Aborted
		res.Failed = []StepError{{Step: st.Name, Err: err}}
		// compensations run even if the caller's context is gone
		cctx := context.WithoutCancel(ctx)
		for i := len(done) - 1; i >= 0; i-- {
			if done[i].Compensate == nil {
				continue
			}
			if cerr := done[i].Compensate(cctx); cerr != nil {
				res.Compensation = append(res.Compensation, StepError{Step: done[i].Name, Err: cerr})
			}
		}
		return res
	}
	return res
}
