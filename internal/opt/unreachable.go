package opt

import "github.com/cpunion/dast-lang/internal/ir"

// removeUnreachable drops blocks with no jump/branch path from the
// function's first block, preserving the order of the survivors.
func removeUnreachable(fn *ir.Function) bool {
	if len(fn.Blocks) == 0 {
		return false
	}

	reached := map[string]bool{}
	work := []string{fn.Blocks[0].Label}
	for len(work) > 0 {
		label := work[len(work)-1]
		work = work[:len(work)-1]
		if reached[label] {
			continue
		}
		reached[label] = true
		b := fn.BlockByLabel(label)
		if b == nil {
			continue
		}
		switch t := b.Term.(type) {
		case *ir.Jump:
			work = append(work, t.Target)
		case *ir.Branch:
			work = append(work, t.Then, t.Else)
		}
	}

	if len(reached) == len(fn.Blocks) {
		return false
	}
	kept := make([]*ir.Block, 0, len(reached))
	for _, b := range fn.Blocks {
		if reached[b.Label] {
			kept = append(kept, b)
		}
	}
	fn.Blocks = kept
	return true
}
