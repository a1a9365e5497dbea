package diagnostics

import (
	"io"
	"sync"

	"github.com/cpunion/dast-lang/colors"
)

// DiagnosticBag collects diagnostics across pipeline stages
type DiagnosticBag struct {
	diagnostics []*Diagnostic
	mu          sync.Mutex
	errorCount  int
	warnCount   int
}

// NewDiagnosticBag creates an empty bag
func NewDiagnosticBag() *DiagnosticBag {
	return &DiagnosticBag{
		diagnostics: make([]*Diagnostic, 0),
	}
}

// Add adds a diagnostic to the bag
func (db *DiagnosticBag) Add(diag *Diagnostic) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.diagnostics = append(db.diagnostics, diag)

	switch diag.Severity {
	case Error:
		db.errorCount++
	case Warning:
		db.warnCount++
	}
}

// AddAll adds every diagnostic in the slice
func (db *DiagnosticBag) AddAll(diags []*Diagnostic) {
	for _, d := range diags {
		db.Add(d)
	}
}

// HasErrors returns true if there are any errors
func (db *DiagnosticBag) HasErrors() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.errorCount > 0
}

// ErrorCount returns the number of errors
func (db *DiagnosticBag) ErrorCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.errorCount
}

// WarningCount returns the number of warnings
func (db *DiagnosticBag) WarningCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.warnCount
}

// Diagnostics returns a copy of all diagnostics
func (db *DiagnosticBag) Diagnostics() []*Diagnostic {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*Diagnostic, len(db.diagnostics))
	copy(out, db.diagnostics)
	return out
}

// Render writes every collected diagnostic to w, one per line, with ANSI
// severity coloring when useColor is set.
func (db *DiagnosticBag) Render(w io.Writer, useColor bool) {
	for _, d := range db.Diagnostics() {
		if !useColor {
			io.WriteString(w, d.String()+"\n")
			continue
		}
		c := colors.YELLOW
		if d.Severity == Error {
			c = colors.RED
		}
		c.Fprintln(w, d.String())
	}
}
