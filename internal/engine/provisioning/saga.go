// Package provisioning creates principals, tenants and memberships through
// ordered steps with per-step compensation, since the tenant store offers no
// transaction spanning several rows.
package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/metrics"
)

// Compensation undoes a completed step.
type Compensation func(ctx context.Context) error

// Step is one forward action. Do returns the compensation for what it did,
// or nil when there is nothing to undo.
type Step struct {
	Name string
	Do   func(ctx context.Context) (Compensation, error)
}

// CompensationOutcome records how undoing one step went.
type CompensationOutcome struct {
	Step string `json:"step"`
	Err  error  `json:"-"`
}

func (o CompensationOutcome) Succeeded() bool {
	return o.Err == nil
}

// SagaError is returned when a step fails after earlier steps completed.
// It unwraps to the forward error and to every failed compensation.
type SagaError struct {
	Saga          string
	Step          string
	Err           error
	Compensations []CompensationOutcome
}

func (e *SagaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: step %q failed: %v", e.Saga, e.Step, e.Err)
	if len(e.Compensations) == 0 {
		return b.String()
	}
	parts := make([]string, 0, len(e.Compensations))
	for _, c := range e.Compensations {
		if c.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", c.Step, c.Err))
		} else {
			parts = append(parts, c.Step+": ok")
		}
	}
	fmt.Fprintf(&b, " (compensations: %s)", strings.Join(parts, "; "))
	return b.String()
}

func (e *SagaError) Unwrap() []error {
	errs := []error{e.Err}
	for _, c := range e.Compensations {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	return errs
}

// CompensationFailed reports whether any rollback step failed, which leaves
// state that needs manual reconciliation.
func (e *SagaError) CompensationFailed() bool {
	for _, c := range e.Compensations {
		if c.Err != nil {
			return true
		}
	}
	return false
}

type completed struct {
	name       string
	compensate Compensation
}

// Saga runs its steps strictly in order with no retries.
type Saga struct {
	name   string
	steps  []Step
	logger zerolog.Logger
}

func NewSaga(name string, logger zerolog.Logger) *Saga {
	return &Saga{name: name, logger: logger.With().Str("saga", name).Logger()}
}

func (s *Saga) Step(name string, do func(ctx context.Context) (Compensation, error)) *Saga {
	s.steps = append(s.steps, Step{Name: name, Do: do})
	return s
}

// Run executes the steps. The first failure stops the forward pass and the
// completed steps are compensated in reverse order. Cancelling ctx stops the
// next step from starting but never interrupts one in flight. Compensations
// run detached from ctx's cancellation.
//
// A failure before any step completed is returned as is. Later failures are
// returned as *SagaError.
func (s *Saga) Run(ctx context.Context) error {
	start := time.Now()
	var done []completed

	for _, step := range s.steps {
		err := ctx.Err()
		if err == nil {
			s.logger.Debug().Str("step", step.Name).Msg("saga step started")
			var comp Compensation
			comp, err = step.Do(ctx)
			if err == nil {
				done = append(done, completed{name: step.Name, compensate: comp})
				continue
			}
		}

		err = tenancy.Wrap(step.Name, err)
		s.logger.Warn().Err(err).Str("step", step.Name).Int("completed_steps", len(done)).Msg("saga step failed")
		if len(done) == 0 {
			metrics.ObserveSaga(s.name, "failed", time.Since(start))
			return err
		}

		sagaErr := &SagaError{Saga: s.name, Step: step.Name, Err: err}
		sagaErr.Compensations = s.compensate(context.WithoutCancel(ctx), done)
		result := "failed"
		if sagaErr.CompensationFailed() {
			result = "compensation_failed"
		}
		metrics.ObserveSaga(s.name, result, time.Since(start))
		return sagaErr
	}

	metrics.ObserveSaga(s.name, "success", time.Since(start))
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []completed) []CompensationOutcome {
	var outcomes []CompensationOutcome
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		if c.compensate == nil {
			continue
		}
		outcome := CompensationOutcome{Step: c.name}
		if err := c.compensate(ctx); err != nil {
			outcome.Err = tenancy.E(tenancy.KindCompensation, "compensate "+c.name, err)
			s.logger.Error().Err(err).Str("step", c.name).Msg("compensation failed, manual reconciliation required")
		} else {
			s.logger.Info().Str("step", c.name).Msg("step compensated")
		}
		metrics.IncCompensation(s.name, c.name, metrics.Result(outcome.Err))
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
