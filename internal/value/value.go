package value

import (
	"fmt"
	"strings"
)

// Kind identifies one of the eight runtime value variants.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindUnit
	KindRef
	KindStruct
	KindEnum
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindUnit:
		return "unit"
	case KindRef:
		return "ref"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a runtime value. Values compare by deep structural equality and
// copy by value; Ref copies the handle, never the referent.
type Value interface {
	Kind() Kind
	Equal(Value) bool
	Clone() Value
	String() string
}

// Width names that may annotate an Int or an Enum tag. The tag is advisory
// metadata and never changes comparison or arithmetic semantics.
var widthNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
}

// ValidWidth reports whether name is a member of the fixed width-tag set.
func ValidWidth(name string) bool {
	return widthNames[name]
}

// Int is a 64-bit signed integer with an optional advisory width tag.
type Int struct {
	V     int64
	Width string // "" when untagged
}

func (v Int) Kind() Kind { return KindInt }

func (v Int) Equal(o Value) bool {
	// Width tags are ignored on purpose.
	w, ok := o.(Int)
	return ok && v.V == w.V
}

func (v Int) Clone() Value { return v }

func (v Int) String() string { return fmt.Sprintf("%d", v.V) }

// Bool is a boolean value.
type Bool struct {
	V bool
}

func (v Bool) Kind() Kind { return KindBool }

func (v Bool) Equal(o Value) bool {
	w, ok := o.(Bool)
	return ok && v.V == w.V
}

func (v Bool) Clone() Value { return v }

func (v Bool) String() string {
	if v.V {
		return "true"
	}
	return "false"
}

// String is a UTF-8 string value.
type String struct {
	V string
}

func (v String) Kind() Kind { return KindString }

func (v String) Equal(o Value) bool {
	w, ok := o.(String)
	return ok && v.V == w.V
}

func (v String) Clone() Value { return v }

func (v String) String() string { return Quote(v.V) }

// Unit is the single-inhabitant "no interesting value" value.
type Unit struct{}

func (v Unit) Kind() Kind { return KindUnit }

func (v Unit) Equal(o Value) bool {
	_, ok := o.(Unit)
	return ok
}

func (v Unit) Clone() Value { return v }

func (v Unit) String() string { return "unit" }

// Ref is an opaque handle to an interpreter-owned heap slot. Copying a Ref
// copies the handle; any number of Refs may alias the same slot.
type Ref struct {
	Slot int
}

func (v Ref) Kind() Kind { return KindRef }

func (v Ref) Equal(o Value) bool {
	w, ok := o.(Ref)
	return ok && v.Slot == w.Slot
}

func (v Ref) Clone() Value { return v }

func (v Ref) String() string { return fmt.Sprintf("&%d", v.Slot) }

// Field is one named field of a Struct value. Field order is significant.
type Field struct {
	Name  string
	Value Value
}

// Struct is a named record with ordered named fields.
type Struct struct {
	Name   string
	Fields []Field
}

func (v Struct) Kind() Kind { return KindStruct }

func (v Struct) Equal(o Value) bool {
	w, ok := o.(Struct)
	if !ok || v.Name != w.Name || len(v.Fields) != len(w.Fields) {
		return false
	}
	for i := range v.Fields {
		if v.Fields[i].Name != w.Fields[i].Name {
			return false
		}
		if !v.Fields[i].Value.Equal(w.Fields[i].Value) {
			return false
		}
	}
	return true
}

func (v Struct) Clone() Value {
	fields := make([]Field, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = Field{Name: f.Name, Value: f.Value.Clone()}
	}
	return Struct{Name: v.Name, Fields: fields}
}

func (v Struct) String() string {
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString("{")
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", f.Name, f.Value)
	}
	b.WriteString("}")
	return b.String()
}

// FieldIndex returns the position of the named field, or -1 when absent.
func (v Struct) FieldIndex(name string) int {
	for i, f := range v.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Enum is a named variant with an integer tag, an advisory tag-width tag and
// an optional payload (nil when absent).
type Enum struct {
	Name     string
	Variant  string
	Tag      int64
	TagWidth string
	Payload  Value
}

func (v Enum) Kind() Kind { return KindEnum }

func (v Enum) Equal(o Value) bool {
	w, ok := o.(Enum)
	if !ok || v.Name != w.Name || v.Variant != w.Variant || v.Tag != w.Tag {
		return false
	}
	if v.Payload == nil || w.Payload == nil {
		return v.Payload == nil && w.Payload == nil
	}
	return v.Payload.Equal(w.Payload)
}

func (v Enum) Clone() Value {
	c := v
	if v.Payload != nil {
		c.Payload = v.Payload.Clone()
	}
	return c
}

func (v Enum) String() string {
	if v.Payload == nil {
		return fmt.Sprintf("%s::%s", v.Name, v.Variant)
	}
	return fmt.Sprintf("%s::%s(%s)", v.Name, v.Variant, v.Payload)
}

// Array is an ordered sequence of values. Homogeneity is a convention of the
// producing front end, not a rule the value model enforces.
type Array struct {
	Elems []Value
}

func (v Array) Kind() Kind { return KindArray }

func (v Array) Equal(o Value) bool {
	w, ok := o.(Array)
	if !ok || len(v.Elems) != len(w.Elems) {
		return false
	}
	for i := range v.Elems {
		if !v.Elems[i].Equal(w.Elems[i]) {
			return false
		}
	}
	return true
}

func (v Array) Clone() Value {
	elems := make([]Value, len(v.Elems))
	for i, e := range v.Elems {
		elems[i] = e.Clone()
	}
	return Array{Elems: elems}
}

func (v Array) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, e := range v.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteString("]")
	return b.String()
}

// Quote renders s as a double-quoted literal using the four escapes the text
// format allows (plus the backslash itself).
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
