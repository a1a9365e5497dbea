package verifier

import (
	"fmt"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/ir"
)

// checkInitialized proves every local read through load/addr was written on
// every control-flow path from function entry to that read. Parameters
// count as written at entry; stores count from the instruction after them.
// Writes through references do not count: the analysis tracks names, not
// aliases.
func (v *verifier) checkInitialized(fn *ir.Function) {
	if len(fn.Blocks) == 0 {
		return
	}

	universe := map[string]bool{}
	for _, p := range fn.Params {
		universe[p] = true
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if st, ok := instr.(*ir.Store); ok {
				universe[st.Var] = true
			}
		}
	}

	preds := map[string][]string{}
	for _, b := range fn.Blocks {
		switch t := b.Term.(type) {
		case *ir.Jump:
			preds[t.Target] = append(preds[t.Target], b.Label)
		case *ir.Branch:
			preds[t.Then] = append(preds[t.Then], b.Label)
			preds[t.Else] = append(preds[t.Else], b.Label)
		}
	}

	// Forward must-analysis: start every block at the full set and shrink
	// to the meet (intersection) over predecessors until stable.
	in := map[string]map[string]bool{}
	out := map[string]map[string]bool{}
	for _, b := range fn.Blocks {
		in[b.Label] = copySet(universe)
		out[b.Label] = copySet(universe)
	}
	in[fn.Blocks[0].Label] = paramSet(fn)

	for changed := true; changed; {
		changed = false
		for bi, b := range fn.Blocks {
			next := in[b.Label]
			if bi > 0 {
				next = copySet(universe)
				for _, pred := range preds[b.Label] {
					next = intersect(next, out[pred])
				}
			}
			if !sameSet(next, in[b.Label]) {
				in[b.Label] = next
				changed = true
			}
			o := copySet(next)
			for _, instr := range b.Instrs {
				if st, ok := instr.(*ir.Store); ok {
					o[st.Var] = true
				}
			}
			if !sameSet(o, out[b.Label]) {
				out[b.Label] = o
				changed = true
			}
		}
	}

	for _, b := range fn.Blocks {
		assigned := copySet(in[b.Label])
		for idx, instr := range b.Instrs {
			switch i := instr.(type) {
			case *ir.Load:
				v.reportUninit(fn, b, idx, i.Var, assigned)
			case *ir.AddrOf:
				v.reportUninit(fn, b, idx, i.Var, assigned)
			case *ir.Store:
				assigned[i.Var] = true
			}
		}
	}
}

func (v *verifier) reportUninit(fn *ir.Function, b *ir.Block, idx int, name string, assigned map[string]bool) {
	if assigned[name] {
		return
	}
	v.report(diagnostics.ErrMaybeUninitialized,
		fmt.Sprintf("variable `%s` is possibly uninitialized", name)).
		At(fn.Name, b.Label, idx).
		WithHelp(fmt.Sprintf("store to `%s` on every path reaching this read", name))
}

func paramSet(fn *ir.Function) map[string]bool {
	s := map[string]bool{}
	for _, p := range fn.Params {
		s[p] = true
	}
	return s
}

func copySet(s map[string]bool) map[string]bool {
	c := make(map[string]bool, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func intersect(a, b map[string]bool) map[string]bool {
	c := map[string]bool{}
	for k := range a {
		if b[k] {
			c[k] = true
		}
	}
	return c
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
