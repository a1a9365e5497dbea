package interp

import (
	"fmt"
	"strings"
)

// Fault is a runtime fault. It aborts the whole interpretation and is
// returned as the result; it is never recovered mid-run.
type Fault struct {
	Code     string // R-prefixed code from the diagnostics package
	Message  string
	Function string
	Block    string
	Instr    int // instruction index, -1 for terminators
}

func (f *Fault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "runtime fault[%s]: %s", f.Code, f.Message)
	if f.Function != "" {
		fmt.Fprintf(&b, " (fn %s", f.Function)
		if f.Block != "" {
			fmt.Fprintf(&b, ", block %s", f.Block)
		}
		if f.Instr >= 0 {
			fmt.Fprintf(&b, ", instr %d", f.Instr)
		}
		b.WriteString(")")
	}
	return b.String()
}
