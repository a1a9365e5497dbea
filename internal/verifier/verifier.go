// Package verifier implements the static well-formedness checks a program
// must pass before it may be interpreted, and that every optimizer output
// must independently pass again.
package verifier

import (
	"fmt"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
)

// Verify checks the whole program and returns every violation found. It
// never mutates its input and never stops at the first defect. A nil result
// means the program is valid.
func Verify(p *ir.Program) []*diagnostics.Diagnostic {
	v := &verifier{}

	v.checkHeader(p)
	v.checkEntry(p)

	seen := map[string]bool{}
	for _, fn := range p.Functions {
		if fn.Name == "" {
			v.report(diagnostics.ErrBadFunctionName, "function with empty name")
		} else if seen[fn.Name] {
			v.report(diagnostics.ErrBadFunctionName, fmt.Sprintf("duplicate function `%s`", fn.Name))
		}
		seen[fn.Name] = true
		v.checkFunction(fn)
	}

	return v.diags
}

type verifier struct {
	diags []*diagnostics.Diagnostic
}

func (v *verifier) report(code, msg string) *diagnostics.Diagnostic {
	d := diagnostics.NewError(code, msg)
	v.diags = append(v.diags, d)
	return d
}

func (v *verifier) checkHeader(p *ir.Program) {
	if p.Version != ir.Version {
		v.report(diagnostics.ErrBadVersion,
			fmt.Sprintf("unsupported version %q, want %q", p.Version, ir.Version))
	}
	if len(p.Features) != 0 {
		v.report(diagnostics.ErrNonEmptyFeatures,
			fmt.Sprintf("feature set must be empty, found %d entries", len(p.Features)))
	}
}

func (v *verifier) checkEntry(p *ir.Program) {
	if p.Entry != "" && p.Lookup(p.Entry) == nil {
		v.report(diagnostics.ErrMissingEntry,
			fmt.Sprintf("entry function `%s` is not declared", p.Entry))
	}
}

func (v *verifier) checkFunction(fn *ir.Function) {
	if fn.ParamTypes != nil && len(fn.ParamTypes) != len(fn.Params) {
		v.report(diagnostics.ErrBadFunctionName,
			fmt.Sprintf("`%s` has %d parameter types for %d parameters",
				fn.Name, len(fn.ParamTypes), len(fn.Params))).At(fn.Name, "", diagnostics.NoInstr)
	}

	labels := map[string]bool{}
	for _, b := range fn.Blocks {
		if b.Label == "" {
			v.report(diagnostics.ErrBadBlockLabel, "block with empty label").At(fn.Name, "", diagnostics.NoInstr)
		} else if labels[b.Label] {
			v.report(diagnostics.ErrBadBlockLabel,
				fmt.Sprintf("duplicate block label `%s`", b.Label)).At(fn.Name, b.Label, diagnostics.NoInstr)
		}
		labels[b.Label] = true
	}

	for _, b := range fn.Blocks {
		for idx, instr := range b.Instrs {
			v.checkInstr(fn, b, idx, instr)
		}
		v.checkTerm(fn, b, labels)
	}

	v.checkInitialized(fn)
}

func (v *verifier) checkTerm(fn *ir.Function, b *ir.Block, labels map[string]bool) {
	target := func(label string) {
		if !labels[label] {
			v.report(diagnostics.ErrBadJumpTarget,
				fmt.Sprintf("jump to unknown block `%s`", label)).At(fn.Name, b.Label, diagnostics.NoInstr)
		}
	}
	switch t := b.Term.(type) {
	case nil:
		v.report(diagnostics.ErrMissingTerminator, "block has no terminator").
			At(fn.Name, b.Label, diagnostics.NoInstr)
	case *ir.Jump:
		target(t.Target)
	case *ir.Branch:
		v.checkTemp(fn, b, diagnostics.NoInstr, t.Cond, false)
		target(t.Then)
		target(t.Else)
	case *ir.Return:
		if t.HasValue {
			v.checkTemp(fn, b, diagnostics.NoInstr, t.Src, false)
		}
	}
}

// checkTemp enforces 0 <= t < TempCount. The NoTemp sentinel is legal only
// where allowNone is set (call destinations and enum payload slots).
func (v *verifier) checkTemp(fn *ir.Function, b *ir.Block, idx, t int, allowNone bool) {
	if t == ir.NoTemp && allowNone {
		return
	}
	if t < 0 || t >= fn.TempCount {
		v.report(diagnostics.ErrTempOutOfRange,
			fmt.Sprintf("temporary t%d outside 0..%d", t, fn.TempCount-1)).At(fn.Name, b.Label, idx)
	}
}

func (v *verifier) checkInstr(fn *ir.Function, b *ir.Block, idx int, instr ir.Instr) {
	temp := func(ts ...int) {
		for _, t := range ts {
			v.checkTemp(fn, b, idx, t, false)
		}
	}
	switch i := instr.(type) {
	case *ir.Const:
		temp(i.Dst)
	case *ir.Load:
		temp(i.Dst)
	case *ir.Store:
		temp(i.Src)
	case *ir.AddrOf:
		temp(i.Dst)
	case *ir.LoadRef:
		temp(i.Dst, i.Ref)
	case *ir.StoreRef:
		temp(i.Ref, i.Src)
	case *ir.Unary:
		temp(i.Dst, i.X)
		if !value.IsUnaryOp(i.Op) {
			v.report(diagnostics.ErrUnknownOperator,
				fmt.Sprintf("unknown unary operator %q", i.Op)).At(fn.Name, b.Label, idx)
		}
	case *ir.Binary:
		temp(i.Dst, i.Left, i.Right)
		if !value.IsBinaryOp(i.Op) {
			v.report(diagnostics.ErrUnknownOperator,
				fmt.Sprintf("unknown binary operator %q", i.Op)).At(fn.Name, b.Label, idx)
		}
	case *ir.Call:
		v.checkTemp(fn, b, idx, i.Dst, true)
		temp(i.Args...)
	case *ir.MakeArray:
		temp(i.Dst)
		temp(i.Elems...)
	case *ir.Index:
		temp(i.Dst, i.Array, i.Idx)
	case *ir.IndexUnchecked:
		// No static bounds check exists for the unchecked form; out of
		// range access is undefined behavior at runtime.
		temp(i.Dst, i.Array, i.Idx)
	case *ir.SetIndex:
		temp(i.Array, i.Idx, i.Src)
	case *ir.SetIndexUnchecked:
		temp(i.Array, i.Idx, i.Src)
	case *ir.MakeStruct:
		temp(i.Dst)
		fields := map[string]bool{}
		for _, f := range i.Fields {
			temp(f.Src)
			if f.Name == "" {
				v.report(diagnostics.ErrDuplicateField, "struct field with empty name").
					At(fn.Name, b.Label, idx)
			} else if fields[f.Name] {
				v.report(diagnostics.ErrDuplicateField,
					fmt.Sprintf("duplicate struct field `%s`", f.Name)).At(fn.Name, b.Label, idx)
			}
			fields[f.Name] = true
		}
	case *ir.GetField:
		temp(i.Dst, i.Base)
	case *ir.SetField:
		temp(i.Base, i.Src)
	case *ir.MakeEnum:
		temp(i.Dst)
		v.checkTemp(fn, b, idx, i.Payload, true)
	case *ir.EnumTag:
		temp(i.Dst, i.Base)
	case *ir.EnumPayload:
		temp(i.Dst, i.Base)
	}
}
