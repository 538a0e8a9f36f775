package scheduler

import (
	"fmt"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// ErrorKind names one of the five recovery policies of SPEC_FULL.md §7's
// error taxonomy.
type ErrorKind string

const (
	KindInputInvalid      ErrorKind = "INPUT_INVALID"
	KindInfeasible        ErrorKind = "INFEASIBLE"
	KindBudgetExhausted   ErrorKind = "BUDGET_EXHAUSTED"
	KindCancelled         ErrorKind = "CANCELLED"
	KindInternalInvariant ErrorKind = "INTERNAL_INVARIANT"
)

// Error is the engine's public error type, grounded on
// noah-isme-sma-adp-api/pkg/errors's kind-bearing wrapper, adapted from an
// HTTP status code to a scheduling-kind.
type Error struct {
	Kind    ErrorKind
	Message string
	// Pointer identifies the offending record for KindInputInvalid, e.g.
	// "student_groups[3].hours_required".
	Pointer string
	Err     error
}

func (e *Error) Error() string {
	if e.Pointer != "" {
		return fmt.Sprintf("scheduler: %s: %s (%s)", e.Kind, e.Message, e.Pointer)
	}
	return fmt.Sprintf("scheduler: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func inputInvalid(pointer string, err error) *Error {
	return &Error{Kind: KindInputInvalid, Message: err.Error(), Pointer: pointer, Err: err}
}

func internalInvariant(err error) *Error {
	return &Error{Kind: KindInternalInvariant, Message: err.Error(), Err: err}
}

// invariantViolation is the private panic value component-local code raises
// on a self-contradiction (e.g. a post-repair duplicate event index) that
// indicates a bug, not bad data. Engine.Run recovers it exactly once at the
// boundary and converts it to a *Error{Kind: KindInternalInvariant} (§7).
type invariantViolation struct {
	err error
}

func (p invariantViolation) Error() string { return p.err.Error() }

func raiseInvariant(format string, args ...interface{}) {
	panic(invariantViolation{err: fmt.Errorf(format, args...)})
}

// checkChromosomeInvariant verifies P1 (no event index occupies more than
// one cell) and index range-safety on the driver's final chromosome. A
// violation here means the builder/repair pipeline corrupted its own
// output — a bug, not bad data — so it panics rather than returning an
// error (§7's InternalInvariant propagation rule).
func checkChromosomeInvariant(ctx *evaluator.Context, x *domain.Chromosome) {
	seen := make(map[domain.EventID]bool, len(ctx.Events))
	for _, p := range x.Placements() {
		if int(p.Event) < 0 || int(p.Event) >= len(ctx.Events) {
			raiseInvariant("chromosome cell (room=%d, slot=%d) holds out-of-range event index %d", p.Room, p.Slot, p.Event)
		}
		if seen[p.Event] {
			raiseInvariant("event index %d occupies more than one chromosome cell", p.Event)
		}
		seen[p.Event] = true
	}
}
