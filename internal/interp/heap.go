package interp

import "github.com/cpunion/dast-lang/internal/value"

// Heap is the arena backing Ref values: an append-only list of storage
// cells addressed by index. Refs are opaque indexes into it, never memory
// addresses, so aliasing is safe by construction. Cells are allocated
// lazily by addr and live for the rest of the run; v0 has no deallocation
// instruction and short-lived programs make reclamation unnecessary.
type heap struct {
	cells []value.Value
}

func (h *heap) alloc(v value.Value) int {
	h.cells = append(h.cells, v)
	return len(h.cells) - 1
}

func (h *heap) load(slot int) (value.Value, bool) {
	if slot < 0 || slot >= len(h.cells) {
		return nil, false
	}
	return h.cells[slot], true
}

func (h *heap) store(slot int, v value.Value) bool {
	if slot < 0 || slot >= len(h.cells) {
		return false
	}
	h.cells[slot] = v
	return true
}
