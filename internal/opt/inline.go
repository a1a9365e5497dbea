package opt

import (
	"fmt"

	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
)

// inlineCalls substitutes calls to single-block, call-free callees directly
// at the call site. Callee temporaries are shifted past the caller's temp
// count and callee locals get a fresh inlN_ prefix, so neither namespace
// can collide. The callee's return becomes a binding of the call
// destination.
func inlineCalls(prog *ir.Program, fn *ir.Function) bool {
	changed := false
	serial := 0
	for _, b := range fn.Blocks {
		for idx := 0; idx < len(b.Instrs); idx++ {
			call, ok := b.Instrs[idx].(*ir.Call)
			if !ok {
				continue
			}
			callee := prog.Lookup(call.Target)
			if !inlinable(callee) || len(call.Args) != len(callee.Params) {
				// A wrong-arity call faults at runtime; leaving it
				// un-inlined preserves that.
				continue
			}

			spliced := expandCall(call, callee, fn.TempCount, serial)
			serial++
			fn.TempCount += callee.TempCount

			instrs := make([]ir.Instr, 0, len(b.Instrs)-1+len(spliced))
			instrs = append(instrs, b.Instrs[:idx]...)
			instrs = append(instrs, spliced...)
			instrs = append(instrs, b.Instrs[idx+1:]...)
			b.Instrs = instrs
			idx += len(spliced) - 1
			changed = true
		}
	}
	return changed
}

// inlinable requires exactly one block ending in a plain return, with no
// calls inside. A call-free callee cannot recurse, so expansion always
// terminates.
func inlinable(callee *ir.Function) bool {
	if callee == nil || len(callee.Blocks) != 1 {
		return false
	}
	block := callee.Blocks[0]
	if _, ok := block.Term.(*ir.Return); !ok {
		return false
	}
	for _, instr := range block.Instrs {
		if _, ok := instr.(*ir.Call); ok {
			return false
		}
	}
	return true
}

func expandCall(call *ir.Call, callee *ir.Function, tempBase, serial int) []ir.Instr {
	rename := func(name string) string {
		return fmt.Sprintf("inl%d_%s", serial, name)
	}

	out := make([]ir.Instr, 0, len(callee.Blocks[0].Instrs)+len(call.Args)+2)
	for i, param := range callee.Params {
		out = append(out, &ir.Store{Var: rename(param), Src: call.Args[i]})
	}

	for _, instr := range callee.Blocks[0].Instrs {
		out = append(out, rewriteInstr(instr.CloneInstr(), tempBase, rename))
	}

	ret := callee.Blocks[0].Term.(*ir.Return)
	if call.Dst != ir.NoTemp {
		if ret.HasValue {
			retVar := rename("ret")
			out = append(out,
				&ir.Store{Var: retVar, Src: ret.Src + tempBase},
				&ir.Load{Dst: call.Dst, Var: retVar})
		} else {
			out = append(out, &ir.Const{Dst: call.Dst, Value: value.Unit{}})
		}
	}
	return out
}

// rewriteInstr shifts every temporary by base and renames every local.
func rewriteInstr(instr ir.Instr, base int, rename func(string) string) ir.Instr {
	shift := func(t int) int {
		if t == ir.NoTemp {
			return t
		}
		return t + base
	}
	switch i := instr.(type) {
	case *ir.Const:
		i.Dst = shift(i.Dst)
	case *ir.Load:
		i.Dst = shift(i.Dst)
		i.Var = rename(i.Var)
	case *ir.Store:
		i.Var = rename(i.Var)
		i.Src = shift(i.Src)
	case *ir.AddrOf:
		i.Dst = shift(i.Dst)
		i.Var = rename(i.Var)
	case *ir.LoadRef:
		i.Dst = shift(i.Dst)
		i.Ref = shift(i.Ref)
	case *ir.StoreRef:
		i.Ref = shift(i.Ref)
		i.Src = shift(i.Src)
	case *ir.Unary:
		i.Dst = shift(i.Dst)
		i.X = shift(i.X)
	case *ir.Binary:
		i.Dst = shift(i.Dst)
		i.Left = shift(i.Left)
		i.Right = shift(i.Right)
	case *ir.MakeArray:
		i.Dst = shift(i.Dst)
		for n := range i.Elems {
			i.Elems[n] = shift(i.Elems[n])
		}
	case *ir.Index:
		i.Dst = shift(i.Dst)
		i.Array = shift(i.Array)
		i.Idx = shift(i.Idx)
	case *ir.IndexUnchecked:
		i.Dst = shift(i.Dst)
		i.Array = shift(i.Array)
		i.Idx = shift(i.Idx)
	case *ir.SetIndex:
		i.Array = shift(i.Array)
		i.Idx = shift(i.Idx)
		i.Src = shift(i.Src)
	case *ir.SetIndexUnchecked:
		i.Array = shift(i.Array)
		i.Idx = shift(i.Idx)
		i.Src = shift(i.Src)
	case *ir.MakeStruct:
		i.Dst = shift(i.Dst)
		for n := range i.Fields {
			i.Fields[n].Src = shift(i.Fields[n].Src)
		}
	case *ir.GetField:
		i.Dst = shift(i.Dst)
		i.Base = shift(i.Base)
	case *ir.SetField:
		i.Base = shift(i.Base)
		i.Src = shift(i.Src)
	case *ir.MakeEnum:
		i.Dst = shift(i.Dst)
		i.Payload = shift(i.Payload)
	case *ir.EnumTag:
		i.Dst = shift(i.Dst)
		i.Base = shift(i.Base)
	case *ir.EnumPayload:
		i.Dst = shift(i.Dst)
		i.Base = shift(i.Base)
	}
	return instr
}
