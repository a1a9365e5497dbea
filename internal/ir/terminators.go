package ir

// Term is the base interface for block terminators.
type Term interface {
	irTerm()
	CloneTerm() Term
}

// Jump transfers control unconditionally to another block.
type Jump struct {
	Target string
}

func (t *Jump) irTerm()         {}
func (t *Jump) CloneTerm() Term { c := *t; return &c }

// Branch transfers control based on a boolean condition temporary.
type Branch struct {
	Cond int
	Then string
	Else string
}

func (t *Branch) irTerm()         {}
func (t *Branch) CloneTerm() Term { c := *t; return &c }

// Return exits the current function, optionally yielding a temporary.
type Return struct {
	Src      int
	HasValue bool
}

func (t *Return) irTerm()         {}
func (t *Return) CloneTerm() Term { c := *t; return &c }
