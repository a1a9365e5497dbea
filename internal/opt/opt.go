// Package opt is a fixed pipeline of conservative, semantics-preserving
// rewrites. Every pass is a pure transformation over a cloned program;
// every output must independently pass the verifier, and non-faulting
// executions produce identical results before and after.
package opt

import (
	"go.uber.org/zap"

	"github.com/cpunion/dast-lang/internal/ir"
)

// Optimize runs the full pass pipeline and returns a new program; the
// input is never mutated. The constant passes iterate to a fixed point so
// a second Optimize of the result is a no-op.
func Optimize(p *ir.Program) *ir.Program {
	return OptimizeWith(p, zap.NewNop())
}

// OptimizeWith is Optimize with pass-level logging.
func OptimizeWith(p *ir.Program, logger *zap.Logger) *ir.Program {
	out := p.Clone()
	for _, fn := range out.Functions {
		optimizeFunction(out, fn, logger)
	}
	return out
}

func optimizeFunction(prog *ir.Program, fn *ir.Function, logger *zap.Logger) {
	if inlineCalls(prog, fn) {
		logger.Debug("inlined calls", zap.String("fn", fn.Name))
	}

	// Folding a branch can cut edges, and cutting edges can expose more
	// constants at the former merge point, so the three constant-driven
	// passes run until nothing changes.
	for i := 0; ; i++ {
		changed := foldConstants(fn)
		changed = foldBranches(fn) || changed
		changed = removeUnreachable(fn) || changed
		if !changed {
			break
		}
		logger.Debug("constant round", zap.String("fn", fn.Name), zap.Int("round", i))
	}

	if eliminateBoundsChecks(fn) {
		logger.Debug("eliminated bounds checks", zap.String("fn", fn.Name))
	}
}
