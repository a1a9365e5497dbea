package ir

// Version is the only program version this package understands.
const Version = "v0"

// NoTemp marks an absent destination. It is legal only on the destination of
// a Call and the payload slot of a MakeEnum.
const NoTemp = -1

// Program is the IR root: a set of uniquely named functions plus an optional
// entry point. Meta is opaque to every component and survives round trips.
type Program struct {
	Version   string
	Features  []string // forward-compatibility placeholder, must be empty
	Functions []*Function
	Entry     string // "" when absent
	Meta      map[string]string
}

// Function is an ordered list of basic blocks over named parameters and a
// bounded set of numbered temporaries t0..t(TempCount-1).
type Function struct {
	Name       string
	Params     []string
	ParamTypes []string // optional; parallel to Params when present
	ReturnType string   // optional
	Blocks     []*Block
	TempCount  int
}

// Block is a labeled straight-line instruction sequence ending in exactly
// one terminator. Term is nil only for ill-formed programs on their way to
// the verifier.
type Block struct {
	Label  string
	Instrs []Instr
	Term   Term
}

// Lookup returns the named function, or nil.
func (p *Program) Lookup(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// BlockByLabel returns the labeled block, or nil.
func (f *Function) BlockByLabel(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Clone deep-copies the program so rewrites can never corrupt their input.
func (p *Program) Clone() *Program {
	c := &Program{
		Version: p.Version,
		Entry:   p.Entry,
	}
	if p.Features != nil {
		c.Features = append([]string(nil), p.Features...)
	}
	if p.Meta != nil {
		c.Meta = make(map[string]string, len(p.Meta))
		for k, v := range p.Meta {
			c.Meta[k] = v
		}
	}
	c.Functions = make([]*Function, len(p.Functions))
	for i, fn := range p.Functions {
		c.Functions[i] = fn.Clone()
	}
	return c
}

// Clone deep-copies the function.
func (f *Function) Clone() *Function {
	c := &Function{
		Name:       f.Name,
		ReturnType: f.ReturnType,
		TempCount:  f.TempCount,
	}
	if f.Params != nil {
		c.Params = append([]string(nil), f.Params...)
	}
	if f.ParamTypes != nil {
		c.ParamTypes = append([]string(nil), f.ParamTypes...)
	}
	c.Blocks = make([]*Block, len(f.Blocks))
	for i, b := range f.Blocks {
		c.Blocks[i] = b.Clone()
	}
	return c
}

// Clone deep-copies the block.
func (b *Block) Clone() *Block {
	c := &Block{Label: b.Label}
	c.Instrs = make([]Instr, len(b.Instrs))
	for i, in := range b.Instrs {
		c.Instrs[i] = in.CloneInstr()
	}
	if b.Term != nil {
		c.Term = b.Term.CloneTerm()
	}
	return c
}
