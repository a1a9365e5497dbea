// Package pipeline coordinates the codec, verifier, interpreter and
// optimizer into the staged flows the CLI exposes. Parse and verify
// failures gate every later stage: nothing unverified ever reaches the
// interpreter or the optimizer.
package pipeline

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/interp"
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/opt"
	"github.com/cpunion/dast-lang/internal/value"
	"github.com/cpunion/dast-lang/internal/verifier"
)

// Pipeline carries the shared logger and the diagnostic bag the stages
// report into.
type Pipeline struct {
	logger *zap.Logger
	bag    *diagnostics.DiagnosticBag
}

// New creates a pipeline. A nil logger disables logging.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger: logger,
		bag:    diagnostics.NewDiagnosticBag(),
	}
}

// Bag exposes the collected diagnostics for rendering.
func (p *Pipeline) Bag() *diagnostics.DiagnosticBag { return p.bag }

// Parse runs the codec parser. A ParseError is recorded in the bag and
// returned; it is never recovered.
func (p *Pipeline) Parse(src string) (*ir.Program, error) {
	p.logger.Debug("parse", zap.Int("bytes", len(src)))
	prog, err := ir.Parse(src)
	if err != nil {
		p.bag.Add(diagnostics.NewError(diagnostics.ErrMalformedText, err.Error()))
		return nil, err
	}
	return prog, nil
}

// Check runs the verifier and collects every violation. The returned error
// aggregates all of them; nil means the program is valid.
func (p *Pipeline) Check(prog *ir.Program) error {
	p.logger.Debug("verify", zap.Int("functions", len(prog.Functions)))
	diags := verifier.Verify(prog)
	if len(diags) == 0 {
		return nil
	}
	p.bag.AddAll(diags)
	var all *multierror.Error
	for _, d := range diags {
		all = multierror.Append(all, errors.New(d.String()))
	}
	return all.ErrorOrNil()
}

// CheckText parses and verifies without executing.
func (p *Pipeline) CheckText(src string) error {
	prog, err := p.Parse(src)
	if err != nil {
		return err
	}
	return p.Check(prog)
}

// Print parses and re-emits the canonical text form.
func (p *Pipeline) Print(src string) (string, error) {
	prog, err := p.Parse(src)
	if err != nil {
		return "", err
	}
	return ir.Format(prog), nil
}

// Run parses, verifies and executes. fnName overrides the program's entry
// when non-empty. The runtime fault, if any, is the returned error.
func (p *Pipeline) Run(src, fnName string, args []value.Value) (value.Value, error) {
	prog, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := p.Check(prog); err != nil {
		return nil, errors.Wrap(err, "verification failed")
	}
	in := interp.New(prog, interp.WithLogger(p.logger))

	var result value.Value
	var fault *interp.Fault
	if fnName != "" {
		result, fault = in.Run(fnName, args)
	} else {
		result, fault = in.RunEntry(args)
	}
	if fault != nil {
		p.logger.Debug("runtime fault", zap.String("code", fault.Code))
		return nil, fault
	}
	return result, nil
}

// Opt parses, verifies, optimizes, re-verifies and re-emits. A verifier
// failure on the optimizer's output is a bug in a pass, not a user error,
// and is reported as such.
func (p *Pipeline) Opt(src string) (string, error) {
	prog, err := p.Parse(src)
	if err != nil {
		return "", err
	}
	if err := p.Check(prog); err != nil {
		return "", errors.Wrap(err, "verification failed")
	}
	optimized := opt.OptimizeWith(prog, p.logger)
	if diags := verifier.Verify(optimized); len(diags) > 0 {
		p.bag.AddAll(diags)
		return "", errors.Errorf("optimizer produced an invalid program (%d violations); this is a bug in an optimizer pass", len(diags))
	}
	return ir.Format(optimized), nil
}
