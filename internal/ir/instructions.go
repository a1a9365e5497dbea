package ir

import "github.com/cpunion/dast-lang/internal/value"

// Instr is the base interface for IR instructions.
type Instr interface {
	irInstr()
	CloneInstr() Instr
}

// Const loads a literal value into a temporary.
type Const struct {
	Dst   int
	Value value.Value
}

func (i *Const) irInstr()          {}
func (i *Const) CloneInstr() Instr { return &Const{Dst: i.Dst, Value: i.Value.Clone()} }

// Load reads a named local variable into a temporary.
type Load struct {
	Dst int
	Var string
}

func (i *Load) irInstr()          {}
func (i *Load) CloneInstr() Instr { c := *i; return &c }

// Store writes a temporary into a named local variable.
type Store struct {
	Var string
	Src int
}

func (i *Store) irInstr()          {}
func (i *Store) CloneInstr() Instr { c := *i; return &c }

// AddrOf takes a reference to a named local.
type AddrOf struct {
	Dst int
	Var string
}

func (i *AddrOf) irInstr()          {}
func (i *AddrOf) CloneInstr() Instr { c := *i; return &c }

// LoadRef dereferences a Ref held in a temporary.
type LoadRef struct {
	Dst int
	Ref int
}

func (i *LoadRef) irInstr()          {}
func (i *LoadRef) CloneInstr() Instr { c := *i; return &c }

// StoreRef writes through a Ref held in a temporary.
type StoreRef struct {
	Ref int
	Src int
}

func (i *StoreRef) irInstr()          {}
func (i *StoreRef) CloneInstr() Instr { c := *i; return &c }

// Unary applies a unary operator.
type Unary struct {
	Dst int
	Op  string
	X   int
}

func (i *Unary) irInstr()          {}
func (i *Unary) CloneInstr() Instr { c := *i; return &c }

// Binary applies a binary operator.
type Binary struct {
	Dst   int
	Op    string
	Left  int
	Right int
}

func (i *Binary) irInstr()          {}
func (i *Binary) CloneInstr() Instr { c := *i; return &c }

// Call invokes a declared function. Dst is NoTemp when the result is
// discarded.
type Call struct {
	Dst    int
	Target string
	Args   []int
}

func (i *Call) irInstr() {}
func (i *Call) CloneInstr() Instr {
	return &Call{Dst: i.Dst, Target: i.Target, Args: append([]int(nil), i.Args...)}
}

// MakeArray builds an array from element temporaries.
type MakeArray struct {
	Dst   int
	Elems []int
}

func (i *MakeArray) irInstr() {}
func (i *MakeArray) CloneInstr() Instr {
	return &MakeArray{Dst: i.Dst, Elems: append([]int(nil), i.Elems...)}
}

// Index reads an array element with a bounds check.
type Index struct {
	Dst   int
	Array int
	Idx   int
}

func (i *Index) irInstr()          {}
func (i *Index) CloneInstr() Instr { c := *i; return &c }

// IndexUnchecked reads an array element without a bounds check.
// Out-of-range access is undefined behavior.
type IndexUnchecked struct {
	Dst   int
	Array int
	Idx   int
}

func (i *IndexUnchecked) irInstr()          {}
func (i *IndexUnchecked) CloneInstr() Instr { c := *i; return &c }

// SetIndex writes an array element with a bounds check.
type SetIndex struct {
	Array int
	Idx   int
	Src   int
}

func (i *SetIndex) irInstr()          {}
func (i *SetIndex) CloneInstr() Instr { c := *i; return &c }

// SetIndexUnchecked writes an array element without a bounds check.
// Out-of-range access is undefined behavior.
type SetIndexUnchecked struct {
	Array int
	Idx   int
	Src   int
}

func (i *SetIndexUnchecked) irInstr()          {}
func (i *SetIndexUnchecked) CloneInstr() Instr { c := *i; return &c }

// FieldInit names one field of a MakeStruct construction.
type FieldInit struct {
	Name string
	Src  int
}

// MakeStruct builds a named struct value from field temporaries.
type MakeStruct struct {
	Dst    int
	Name   string
	Fields []FieldInit
}

func (i *MakeStruct) irInstr() {}
func (i *MakeStruct) CloneInstr() Instr {
	return &MakeStruct{Dst: i.Dst, Name: i.Name, Fields: append([]FieldInit(nil), i.Fields...)}
}

// GetField projects a named field out of a struct value.
type GetField struct {
	Dst   int
	Base  int
	Field string
}

func (i *GetField) irInstr()          {}
func (i *GetField) CloneInstr() Instr { c := *i; return &c }

// SetField overwrites a named field of a struct value.
type SetField struct {
	Base  int
	Field string
	Src   int
}

func (i *SetField) irInstr()          {}
func (i *SetField) CloneInstr() Instr { c := *i; return &c }

// MakeEnum builds an enum value. Payload is NoTemp when the variant carries
// no payload.
type MakeEnum struct {
	Dst      int
	Name     string
	Variant  string
	Tag      int64
	TagWidth string
	Payload  int
}

func (i *MakeEnum) irInstr()          {}
func (i *MakeEnum) CloneInstr() Instr { c := *i; return &c }

// EnumTag projects the integer tag of an enum value.
type EnumTag struct {
	Dst  int
	Base int
}

func (i *EnumTag) irInstr()          {}
func (i *EnumTag) CloneInstr() Instr { c := *i; return &c }

// EnumPayload projects the payload of an enum value.
type EnumPayload struct {
	Dst  int
	Base int
}

func (i *EnumPayload) irInstr()          {}
func (i *EnumPayload) CloneInstr() Instr { c := *i; return &c }
