package browser

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	errNoPage  = errors.New("page was never opened")
	errNoVideo = errors.New("page has no video recording")
)

// step is one independently guarded teardown operation. Optional steps fail
// silently (logged at debug); the rest are logged as warnings.
type step struct {
	name     string
	optional bool
	run      func() error
}

// StepError reports which teardown step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// runSteps runs every step in order, recovering panics, and returns the
// failures of non-optional steps.
func runSteps(log *slog.Logger, steps []step) []error {
	var failures []error
	for _, s := range steps {
		err := runStep(s)
		if err == nil {
			continue
		}
		if s.optional {
			log.Debug("teardown step skipped", "step", s.name, "error", err)
			continue
		}
		log.Warn("teardown step failed", "step", s.name, "error", err)
		failures = append(failures, &StepError{Step: s.name, Err: err})
	}
	return failures
}

func runStep(s step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.run()
}
