// SPDX-License-Identifier: GPL-3.0-or-later

package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/ooniqa/jafar"
	"github.com/rbmk-project/ooniqa/measurement"
	"github.com/rbmk-project/ooniqa/scenario"
)

// DefaultPause is the default pause after each scenario.
const DefaultPause = 7 * time.Second

// ErrScenarioFailed indicates that a scenario did not pass.
var ErrScenarioFailed = errors.New("qa: scenario failed")

// Orchestrator runs a probe under interference and returns the
// serialized measurement. [*jafar.Runner] implements it.
type Orchestrator interface {
	Run(ctx context.Context, inv *jafar.Invocation) ([]byte, error)
}

var _ Orchestrator = &jafar.Runner{}

// Validator validates serialized measurements.
// [*measurement.Validator] implements it.
type Validator interface {
	Validate(experiment string, data []byte) (*measurement.Measurement, error)
}

var _ Validator = &measurement.Validator{}

// Checker checks whether endpoints are reachable before running
// a scenario. [*preflight.Network] implements it.
type Checker interface {
	Check(ctx context.Context, endpoints []string) error
}

// Result is the result of running a scenario.
type Result struct {
	// Scenario is the scenario that run.
	Scenario *scenario.Scenario

	// Measurement is the validated measurement or nil.
	Measurement *measurement.Measurement

	// Mismatches contains the unmet expectations.
	Mismatches []scenario.Mismatch

	// Err is nil when the scenario passed and otherwise
	// wraps [ErrScenarioFailed].
	Err error

	// T0 is when the scenario started.
	T0 time.Time

	// T is when the scenario finished.
	T time.Time
}

// Passed returns whether the scenario passed.
func (r *Result) Passed() bool {
	return r.Err == nil
}

// Suite runs scenarios.
//
// The Orchestrator and Validator fields are mandatory; all the
// other fields are optional.
type Suite struct {
	// Orchestrator runs the probe under interference.
	Orchestrator Orchestrator

	// Validator validates the measurements.
	Validator Validator

	// Preflight optionally checks the reachability of the
	// scenario endpoints before running each scenario.
	Preflight Checker

	// Variant is the probe variant selecting the expectations
	// overrides (see [scenario.Variant]).
	Variant string

	// Pause is the pause after each scenario. If zero, we use
	// [DefaultPause]. If negative, we do not pause.
	Pause time.Duration

	// KeepGoing continues after a failing scenario.
	KeepGoing bool

	// Logger is the optional structured logger.
	Logger *slog.Logger

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time
}

// timeNow returns the current time.
func (s *Suite) timeNow() time.Time {
	if s.TimeNow != nil {
		return s.TimeNow()
	}
	return time.Now()
}

// pause returns the pause after each scenario.
func (s *Suite) pause() time.Duration {
	if s.Pause == 0 {
		return DefaultPause
	}
	return s.Pause
}

// Run runs the given scenarios in order and returns their results. The
// returned error joins the errors of the failed scenarios. Unless KeepGoing
// is set, Run stops after the first failure. Context cancellation also
// stops the run and its error is included in the returned error.
func (s *Suite) Run(ctx context.Context, scenarios ...*scenario.Scenario) ([]*Result, error) {
	var (
		results []*Result
		errv    []error
	)
	for _, sc := range scenarios {
		result := s.RunScenario(ctx, sc)
		results = append(results, result)
		if result.Err != nil {
			errv = append(errv, result.Err)
			if !s.KeepGoing {
				break
			}
		}
		if err := s.sleep(ctx); err != nil {
			errv = append(errv, err)
			break
		}
	}
	return results, errors.Join(errv...)
}

// sleep pauses for the configured duration or until the context is done.
func (s *Suite) sleep(ctx context.Context) error {
	d := s.pause()
	if d < 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunScenario runs a single scenario without pausing afterwards.
func (s *Suite) RunScenario(ctx context.Context, sc *scenario.Scenario) *Result {
	result := &Result{Scenario: sc}
	result.T0 = s.emitScenarioStart(ctx, sc)
	result.Err = s.runScenario(ctx, sc, result)
	result.T = s.timeNow()
	s.emitScenarioDone(ctx, result)
	return result
}

func (s *Suite) runScenario(ctx context.Context, sc *scenario.Scenario, result *Result) error {
	// 1. make sure the network is usable
	if s.Preflight != nil {
		if err := s.Preflight.Check(ctx, sc.Experiment.PreflightEndpoints()); err != nil {
			return fmt.Errorf("%w: %s: preflight: %w", ErrScenarioFailed, sc.Name, err)
		}
	}

	// 2. run the probe under interference
	data, err := s.Orchestrator.Run(ctx, sc.Invocation())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScenarioFailed, sc.Name, err)
	}

	// 3. make sure the measurement has the expected shape
	m, err := s.Validator.Validate(sc.Experiment.Name, data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScenarioFailed, sc.Name, err)
	}
	result.Measurement = m

	// 4. compare with the expectations
	result.Mismatches = sc.Check(m, s.Variant)
	if len(result.Mismatches) > 0 {
		return &MismatchError{Scenario: sc.Name, Mismatches: result.Mismatches}
	}
	return nil
}

// MismatchError is the error returned when the test keys do not
// match the expectations. It wraps [ErrScenarioFailed].
type MismatchError struct {
	Scenario   string
	Mismatches []scenario.Mismatch
}

// Error implements error.
func (e *MismatchError) Error() string {
	descrs := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		descrs = append(descrs, m.String())
	}
	return fmt.Sprintf("%s: %s: %s", ErrScenarioFailed.Error(), e.Scenario, strings.Join(descrs, "; "))
}

// Unwrap returns [ErrScenarioFailed].
func (e *MismatchError) Unwrap() error {
	return ErrScenarioFailed
}

// emitScenarioStart emits a structured event before running a scenario.
func (s *Suite) emitScenarioStart(ctx context.Context, sc *scenario.Scenario) time.Time {
	t0 := s.timeNow()
	if s.Logger != nil {
		s.Logger.InfoContext(
			ctx,
			"scenarioStart",
			slog.String("experiment", sc.Experiment.Name),
			slog.String("scenario", sc.Name),
			slog.String("variant", s.Variant),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitScenarioDone emits a structured event after running a scenario.
func (s *Suite) emitScenarioDone(ctx context.Context, result *Result) {
	if s.Logger != nil {
		s.Logger.InfoContext(
			ctx,
			"scenarioDone",
			slog.Any("err", result.Err),
			slog.String("errClass", errclass.New(result.Err)),
			slog.String("experiment", result.Scenario.Experiment.Name),
			slog.Int("mismatches", len(result.Mismatches)),
			slog.Bool("passed", result.Passed()),
			slog.String("scenario", result.Scenario.Name),
			slog.Time("t0", result.T0),
			slog.Time("t", result.T),
		)
	}
}
