package opt

import (
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
)

// eliminateBoundsChecks replaces checked indexing with the unchecked form
// when the array is a same-block make_array of known length, the array
// temporary has not been redefined since, and the index is a known constant
// inside [0, length). The rewrite is never speculative: a surviving
// checked index means the proof failed.
func eliminateBoundsChecks(fn *ir.Function) bool {
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
		lengths := map[int]int{} // array temp -> element count
		for idx := range b.Instrs {
			switch i := b.Instrs[idx].(type) {
			case *ir.Index:
				if _, ok := provenIndex(f, lengths, i.Array, i.Idx); ok {
					b.Instrs[idx] = &ir.IndexUnchecked{Dst: i.Dst, Array: i.Array, Idx: i.Idx}
					changed = true
				}
			case *ir.SetIndex:
				if _, ok := provenIndex(f, lengths, i.Array, i.Idx); ok {
					b.Instrs[idx] = &ir.SetIndexUnchecked{Array: i.Array, Idx: i.Idx, Src: i.Src}
					changed = true
				}
			}
			if ma, ok := b.Instrs[idx].(*ir.MakeArray); ok {
				lengths[ma.Dst] = len(ma.Elems)
			} else if dst, ok := instrDst(b.Instrs[idx]); ok {
				delete(lengths, dst)
			}
			transfer(f, b.Instrs[idx], escaped)
		}
	}
	return changed
}

func provenIndex(f *facts, lengths map[int]int, arrayTemp, idxTemp int) (int64, bool) {
	length, ok := lengths[arrayTemp]
	if !ok {
		return 0, false
	}
	n, ok := f.temps[idxTemp].(value.Int)
	if !ok {
		return 0, false
	}
	if n.V < 0 || n.V >= int64(length) {
		return 0, false
	}
	return n.V, true
}

// instrDst returns the destination temporary an instruction writes, if any.
func instrDst(instr ir.Instr) (int, bool) {
	switch i := instr.(type) {
	case *ir.Const:
		return i.Dst, true
	case *ir.Load:
		return i.Dst, true
	case *ir.AddrOf:
		return i.Dst, true
	case *ir.LoadRef:
		return i.Dst, true
	case *ir.Unary:
		return i.Dst, true
	case *ir.Binary:
		return i.Dst, true
	case *ir.Call:
		if i.Dst != ir.NoTemp {
			return i.Dst, true
		}
	case *ir.MakeArray:
		return i.Dst, true
	case *ir.Index:
		return i.Dst, true
	case *ir.IndexUnchecked:
		return i.Dst, true
	case *ir.MakeStruct:
		return i.Dst, true
	case *ir.GetField:
		return i.Dst, true
	case *ir.MakeEnum:
		return i.Dst, true
	case *ir.EnumTag:
		return i.Dst, true
	case *ir.EnumPayload:
		return i.Dst, true
	}
	return 0, false
}
