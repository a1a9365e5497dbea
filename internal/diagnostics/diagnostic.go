package diagnostics

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// NoInstr marks a diagnostic that is not tied to one instruction.
const NoInstr = -1

// Diagnostic locates one defect in a program. Function, Block and Instr
// narrow the location as far as the reporting component can.
type Diagnostic struct {
	Severity Severity
	Code     string // error code like "V0001"
	Message  string
	Function string
	Block    string
	Instr    int // instruction index within Block, or NoInstr
	Help     string
}

// NewError creates a new error diagnostic
func NewError(code, message string) *Diagnostic {
	return &Diagnostic{Severity: Error, Code: code, Message: message, Instr: NoInstr}
}

// NewWarning creates a new warning diagnostic
func NewWarning(code, message string) *Diagnostic {
	return &Diagnostic{Severity: Warning, Code: code, Message: message, Instr: NoInstr}
}

// At attaches the program location and returns the diagnostic for chaining.
func (d *Diagnostic) At(function, block string, instr int) *Diagnostic {
	d.Function = function
	d.Block = block
	d.Instr = instr
	return d
}

// WithHelp attaches a fix suggestion and returns the diagnostic for chaining.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// String renders the diagnostic without colors, e.g.
// "error[V0007]: jump to unknown block `done` (fn main, block entry)".
func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s", d.Severity, d.Code, d.Message)
	if loc := d.location(); loc != "" {
		fmt.Fprintf(&b, " (%s)", loc)
	}
	return b.String()
}

func (d *Diagnostic) location() string {
	parts := make([]string, 0, 3)
	if d.Function != "" {
		parts = append(parts, "fn "+d.Function)
	}
	if d.Block != "" {
		parts = append(parts, "block "+d.Block)
	}
	if d.Instr != NoInstr {
		parts = append(parts, fmt.Sprintf("instr %d", d.Instr))
	}
	return strings.Join(parts, ", ")
}
