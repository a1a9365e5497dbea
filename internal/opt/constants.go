package opt

import (
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
)

// facts maps temporaries (by index) and locals (by name) to the literal
// value they are known to hold at a program point. Only Int, Bool, String
// and Unit are tracked; aggregates can be mutated in place and Refs alias,
// so neither is safe to propagate.
type facts struct {
	temps map[int]value.Value
	vars  map[string]value.Value
}

func newFacts() *facts {
	return &facts{temps: map[int]value.Value{}, vars: map[string]value.Value{}}
}

func (f *facts) clone() *facts {
	c := newFacts()
	for k, v := range f.temps {
		c.temps[k] = v
	}
	for k, v := range f.vars {
		c.vars[k] = v
	}
	return c
}

// meet keeps only the facts both sides agree on.
func (f *facts) meet(o *facts) *facts {
	c := newFacts()
	for k, v := range f.temps {
		if w, ok := o.temps[k]; ok && v.Equal(w) {
			c.temps[k] = v
		}
	}
	for k, v := range f.vars {
		if w, ok := o.vars[k]; ok && v.Equal(w) {
			c.vars[k] = v
		}
	}
	return c
}

func (f *facts) same(o *facts) bool {
	if len(f.temps) != len(o.temps) || len(f.vars) != len(o.vars) {
		return false
	}
	for k, v := range f.temps {
		if w, ok := o.temps[k]; !ok || !v.Equal(w) {
			return false
		}
	}
	for k, v := range f.vars {
		if w, ok := o.vars[k]; !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func trackable(v value.Value) bool {
	switch v.Kind() {
	case value.KindInt, value.KindBool, value.KindString, value.KindUnit:
		return true
	default:
		return false
	}
}

// analyzeConstants computes the facts holding at entry to every block: the
// meet over all predecessors, empty at function entry. Locals whose address
// is ever taken are excluded entirely; they can change through any Ref.
func analyzeConstants(fn *ir.Function) map[string]*facts {
	escaped := map[string]bool{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(*ir.AddrOf); ok {
				escaped[a.Var] = true
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

	in := map[string]*facts{}
	out := map[string]*facts{}
	known := map[string]bool{}

	for changed := true; changed; {
		changed = false
		for bi, b := range fn.Blocks {
			var next *facts
			if bi == 0 {
				next = newFacts()
			} else {
				for _, pred := range preds[b.Label] {
					po, ok := out[pred]
					if !ok {
						// Predecessor not yet computed: contributes
						// nothing this round, tightened next round.
						continue
					}
					if next == nil {
						next = po.clone()
					} else {
						next = next.meet(po)
					}
				}
				if next == nil {
					next = newFacts()
				}
			}
			if !known[b.Label] || !next.same(in[b.Label]) {
				in[b.Label] = next
				known[b.Label] = true
				changed = true
			}
			o := next.clone()
			for _, instr := range b.Instrs {
				transfer(o, instr, escaped)
			}
			if out[b.Label] == nil || !o.same(out[b.Label]) {
				out[b.Label] = o
				changed = true
			}
		}
	}
	return in
}

// transfer applies one instruction's effect to the fact set.
func transfer(f *facts, instr ir.Instr, escaped map[string]bool) {
	kill := func(dst int) { delete(f.temps, dst) }

	switch i := instr.(type) {
	case *ir.Const:
		if trackable(i.Value) {
			f.temps[i.Dst] = i.Value
		} else {
			kill(i.Dst)
		}
	case *ir.Load:
		if v, ok := f.vars[i.Var]; ok {
			f.temps[i.Dst] = v
		} else {
			kill(i.Dst)
		}
	case *ir.Store:
		if v, ok := f.temps[i.Src]; ok && !escaped[i.Var] {
			f.vars[i.Var] = v
		} else {
			delete(f.vars, i.Var)
		}
	case *ir.AddrOf:
		kill(i.Dst)
		delete(f.vars, i.Var)
	case *ir.Unary:
		if x, ok := f.temps[i.X]; ok {
			if v, err := value.EvalUnary(i.Op, x); err == nil {
				f.temps[i.Dst] = v
				return
			}
		}
		kill(i.Dst)
	case *ir.Binary:
		l, lok := f.temps[i.Left]
		r, rok := f.temps[i.Right]
		if lok && rok {
			if v, err := value.EvalBinary(i.Op, l, r); err == nil {
				f.temps[i.Dst] = v
				return
			}
		}
		kill(i.Dst)
	case *ir.LoadRef:
		kill(i.Dst)
	case *ir.Call:
		if i.Dst != ir.NoTemp {
			kill(i.Dst)
		}
	case *ir.MakeArray:
		kill(i.Dst)
	case *ir.Index:
		kill(i.Dst)
	case *ir.IndexUnchecked:
		kill(i.Dst)
	case *ir.MakeStruct:
		kill(i.Dst)
	case *ir.GetField:
		kill(i.Dst)
	case *ir.MakeEnum:
		kill(i.Dst)
	case *ir.EnumTag:
		kill(i.Dst)
	case *ir.EnumPayload:
		kill(i.Dst)
	}
}

// foldConstants is the combined local constant propagation and folding
// pass: loads of known-constant locals and operators over known-constant
// operands become const instructions, evaluated with the interpreter's own
// operator semantics. Operations that would fault are left alone.
func foldConstants(fn *ir.Function) bool {
	in := analyzeConstants(fn)
	escaped := map[string]bool{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(*ir.AddrOf); ok {
				escaped[a.Var] = true
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		f := in[b.Label].clone()
		for idx, instr := range b.Instrs {
			switch i := instr.(type) {
			case *ir.Load:
				if v, ok := f.vars[i.Var]; ok {
					b.Instrs[idx] = &ir.Const{Dst: i.Dst, Value: v.Clone()}
					changed = true
				}
			case *ir.Unary:
				if x, ok := f.temps[i.X]; ok {
					if v, err := value.EvalUnary(i.Op, x); err == nil {
						b.Instrs[idx] = &ir.Const{Dst: i.Dst, Value: v}
						changed = true
					}
				}
			case *ir.Binary:
				l, lok := f.temps[i.Left]
				r, rok := f.temps[i.Right]
				if lok && rok {
					if v, err := value.EvalBinary(i.Op, l, r); err == nil {
						b.Instrs[idx] = &ir.Const{Dst: i.Dst, Value: v}
						changed = true
					}
				}
			}
			transfer(f, b.Instrs[idx], escaped)
		}
	}
	return changed
}

// foldBranches rewrites branches whose condition is a known literal bool
// into unconditional jumps.
func foldBranches(fn *ir.Function) bool {
	in := analyzeConstants(fn)
	escaped := map[string]bool{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if a, ok := instr.(*ir.AddrOf); ok {
				escaped[a.Var] = true
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		br, ok := b.Term.(*ir.Branch)
		if !ok {
			continue
		}
		f := in[b.Label].clone()
		for _, instr := range b.Instrs {
			transfer(f, instr, escaped)
		}
		cond, ok := f.temps[br.Cond].(value.Bool)
		if !ok {
			continue
		}
		if cond.V {
			b.Term = &ir.Jump{Target: br.Then}
		} else {
			b.Term = &ir.Jump{Target: br.Else}
		}
		changed = true
	}
	return changed
}
