package driver

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// dumpChromosome pretty-prints the final placement list and its violation
// breakdown to stderr, gated by Params.Debug. Grounded on the teacher's own
// use of k0kubun/pp for readable struct dumps in lib_test.go's assertion
// failures; here it backs a verbose run-inspection mode instead.
func dumpChromosome(ctx *evaluator.Context, x *domain.Chromosome, hard, total float64) {
	fmt.Fprintf(os.Stderr, "driver: final chromosome (hard_viol=%.2f total=%.2f)\n", hard, total)
	pp.Fprintln(os.Stderr, x.Placements())
	pp.Fprintln(os.Stderr, evaluator.Violations(ctx, x))
}
