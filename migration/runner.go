package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one step.
type Status string

const (
	OK      Status = "OK"
	Failed  Status = "FAILED"
	Skipped Status = "SKIPPED"
	DryRun  Status = "DRY RUN"
)

// Outcome reports what happened to one step.
type Outcome struct {
	Step     Step
	Status   Status
	Err      error
	Duration time.Duration
}

// Ledger renders the statements that record and forget applied units.
type Ledger interface {
	Insert(u Unit) (string, []any, error)
	Delete(u Unit) (string, []any, error)
}

// Runner applies plans one unit per transaction and stops at the first
// failure.
type Runner struct {
	ledger     Ledger
	logger     *slog.Logger
	metrics    *Metrics
	errorAttrs func(error) []any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records every outcome in m.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithErrorAttrs adds driver specific attributes to failure logs.
func WithErrorAttrs(fn func(error) []any) RunnerOption {
	return func(r *Runner) { r.errorAttrs = fn }
}

// NewRunner creates a Runner that keeps ledger in step with applied units.
func NewRunner(ledger Ledger, opts ...RunnerOption) *Runner {
	r := &Runner{ledger: ledger, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply runs plan against exec. Each unit's statements and its ledger change
// share one transaction. After the first failure the remaining steps are
// reported as Skipped and the failure is returned. Cancelling ctx stops the
// run before the next unit starts.
func (r *Runner) Apply(ctx context.Context, exec Executor, plan Plan) ([]Outcome, error) {
	log := r.logger.With("run", uuid.NewString())
	log.Info("applying migrations", "steps", len(plan))

	outcomes := make([]Outcome, 0, len(plan))
	var failure error
	for _, step := range plan {
		if failure == nil {
			failure = ctx.Err()
		}
		if failure != nil {
			outcomes = append(outcomes, Outcome{Step: step, Status: Skipped})
			r.metrics.observe(step.Direction, Skipped, 0)
			continue
		}

		start := time.Now()
		err := r.applyStep(ctx, exec, step)
		elapsed := time.Since(start)
		if err != nil {
			failure = err
			outcomes = append(outcomes, Outcome{Step: step, Status: Failed, Err: err, Duration: elapsed})
			r.metrics.observe(step.Direction, Failed, elapsed)

			attrs := []any{"key", step.Unit.Key().String(), "direction", string(step.Direction), "error", err}
			if r.errorAttrs != nil {
				attrs = append(attrs, r.errorAttrs(err)...)
			}
			log.Error("migration failed", attrs...)
			continue
		}

		outcomes = append(outcomes, Outcome{Step: step, Status: OK, Duration: elapsed})
		r.metrics.observe(step.Direction, OK, elapsed)
		log.Info("migration applied",
			"key", step.Unit.Key().String(),
			"direction", string(step.Direction),
			"duration", elapsed)
	}
	return outcomes, failure
}

// DryRun reports every step of plan without executing anything.
func (r *Runner) DryRun(plan Plan) []Outcome {
	outcomes := make([]Outcome, len(plan))
	for i, step := range plan {
		outcomes[i] = Outcome{Step: step, Status: DryRun}
		r.logger.Info("dry run", "key", step.Unit.Key().String(), "direction", string(step.Direction))
	}
	return outcomes
}

func (r *Runner) applyStep(ctx context.Context, exec Executor, step Step) error {
	u := step.Unit
	fail := func(stmt int, err error) error {
		return &ExecutionError{Key: u.Key(), Direction: step.Direction, Statement: stmt, Err: err}
	}

	tx, err := exec.Begin(ctx)
	if err != nil {
		return fail(-1, fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The ledger row goes before dn statements so a unit that drops the
	// ledger table can still forget itself.
	if step.Direction == Down {
		if err := r.record(ctx, tx, step); err != nil {
			return fail(-1, err)
		}
	}
	for i, stmt := range u.Statements(step.Direction) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fail(i, err)
		}
	}
	if step.Direction == Up {
		if err := r.record(ctx, tx, step); err != nil {
			return fail(-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fail(-1, fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func (r *Runner) record(ctx context.Context, tx Tx, step Step) error {
	render := r.ledger.Insert
	if step.Direction == Down {
		render = r.ledger.Delete
	}
	stmt, args, err := render(step.Unit)
	if err != nil {
		return fmt.Errorf("render ledger statement: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	return nil
}
