package ir

import (
	"fmt"
	"strings"

	"github.com/cpunion/dast-lang/internal/value"
)

// Format returns the canonical text form of the program. The parser accepts
// exactly this language, so Format and Parse round-trip.
func Format(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ir %s\n", p.Version)
	if p.Entry != "" {
		fmt.Fprintf(&b, "entry %s\n", p.Entry)
	}

	for _, fn := range p.Functions {
		b.WriteString("\n")
		writeFunction(&b, fn)
	}

	return b.String()
}

func writeFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "fn %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(param)
		if i < len(fn.ParamTypes) && fn.ParamTypes[i] != "" {
			fmt.Fprintf(b, ": %s", fn.ParamTypes[i])
		}
	}
	b.WriteString(")")
	if fn.ReturnType != "" {
		fmt.Fprintf(b, " -> %s", fn.ReturnType)
	}
	b.WriteString("\n")

	for _, block := range fn.Blocks {
		writeBlock(b, block)
	}
}

func writeBlock(b *strings.Builder, block *Block) {
	fmt.Fprintf(b, "block %s:\n", block.Label)

	for _, instr := range block.Instrs {
		fmt.Fprintf(b, "  %s\n", FormatInstr(instr))
	}

	if block.Term != nil {
		fmt.Fprintf(b, "  %s\n", FormatTerm(block.Term))
	}
}

// FormatInstr renders one instruction in the fixed surface syntax.
func FormatInstr(instr Instr) string {
	switch i := instr.(type) {
	case *Const:
		return formatAssign(i.Dst, fmt.Sprintf("const %s", FormatConst(i.Value)))
	case *Load:
		return formatAssign(i.Dst, fmt.Sprintf("load %s", i.Var))
	case *Store:
		return fmt.Sprintf("store %s, %s", i.Var, formatTemp(i.Src))
	case *AddrOf:
		return formatAssign(i.Dst, fmt.Sprintf("addr %s", i.Var))
	case *LoadRef:
		return formatAssign(i.Dst, fmt.Sprintf("load_ref %s", formatTemp(i.Ref)))
	case *StoreRef:
		return fmt.Sprintf("store_ref %s, %s", formatTemp(i.Ref), formatTemp(i.Src))
	case *Unary:
		return formatAssign(i.Dst, fmt.Sprintf("%s %s", i.Op, formatTemp(i.X)))
	case *Binary:
		return formatAssign(i.Dst, fmt.Sprintf("%s %s, %s", i.Op, formatTemp(i.Left), formatTemp(i.Right)))
	case *Call:
		call := fmt.Sprintf("call %s(%s)", i.Target, formatTemps(i.Args))
		if i.Dst == NoTemp {
			return call
		}
		return formatAssign(i.Dst, call)
	case *MakeArray:
		if len(i.Elems) == 0 {
			return formatAssign(i.Dst, "make_array")
		}
		return formatAssign(i.Dst, fmt.Sprintf("make_array %s", formatTemps(i.Elems)))
	case *Index:
		return formatAssign(i.Dst, fmt.Sprintf("index %s, %s", formatTemp(i.Array), formatTemp(i.Idx)))
	case *IndexUnchecked:
		return formatAssign(i.Dst, fmt.Sprintf("index_unchecked %s, %s", formatTemp(i.Array), formatTemp(i.Idx)))
	case *SetIndex:
		return fmt.Sprintf("set_index %s, %s, %s", formatTemp(i.Array), formatTemp(i.Idx), formatTemp(i.Src))
	case *SetIndexUnchecked:
		return fmt.Sprintf("set_index_unchecked %s, %s, %s", formatTemp(i.Array), formatTemp(i.Idx), formatTemp(i.Src))
	case *MakeStruct:
		var fields strings.Builder
		for n, f := range i.Fields {
			if n > 0 {
				fields.WriteString(", ")
			}
			fmt.Fprintf(&fields, "%s: %s", f.Name, formatTemp(f.Src))
		}
		return formatAssign(i.Dst, fmt.Sprintf("make_struct %s {%s}", i.Name, fields.String()))
	case *GetField:
		return formatAssign(i.Dst, fmt.Sprintf("get_field %s, %s", formatTemp(i.Base), i.Field))
	case *SetField:
		return fmt.Sprintf("set_field %s, %s, %s", formatTemp(i.Base), i.Field, formatTemp(i.Src))
	case *MakeEnum:
		s := fmt.Sprintf("make_enum %s::%s, %d, %s", i.Name, i.Variant, i.Tag, i.TagWidth)
		if i.Payload != NoTemp {
			s += fmt.Sprintf(", %s", formatTemp(i.Payload))
		}
		return formatAssign(i.Dst, s)
	case *EnumTag:
		return formatAssign(i.Dst, fmt.Sprintf("enum_tag %s", formatTemp(i.Base)))
	case *EnumPayload:
		return formatAssign(i.Dst, fmt.Sprintf("enum_payload %s", formatTemp(i.Base)))
	default:
		return fmt.Sprintf("<unknown instr %T>", instr)
	}
}

// FormatTerm renders one terminator in the fixed surface syntax.
func FormatTerm(term Term) string {
	switch t := term.(type) {
	case *Jump:
		return fmt.Sprintf("jump %s", t.Target)
	case *Branch:
		return fmt.Sprintf("branch %s, %s, %s", formatTemp(t.Cond), t.Then, t.Else)
	case *Return:
		if t.HasValue {
			return fmt.Sprintf("return %s", formatTemp(t.Src))
		}
		return "return"
	default:
		return fmt.Sprintf("<unknown term %T>", term)
	}
}

// FormatConst renders a constant literal. Ref, Struct, Enum and Array have
// no parseable literal form; they print as debug annotations only.
func FormatConst(v value.Value) string {
	switch c := v.(type) {
	case value.Int:
		if c.Width != "" {
			return fmt.Sprintf("%d %s", c.V, c.Width)
		}
		return fmt.Sprintf("%d", c.V)
	case value.Bool, value.String, value.Unit:
		return v.String()
	case value.Ref:
		return fmt.Sprintf("&%d", c.Slot)
	case value.Struct:
		return fmt.Sprintf("struct#%d", len(c.Fields))
	case value.Enum:
		return fmt.Sprintf("enum#%d", c.Tag)
	case value.Array:
		return fmt.Sprintf("array#%d", len(c.Elems))
	default:
		return fmt.Sprintf("<unknown const %T>", v)
	}
}

func formatAssign(dst int, rhs string) string {
	return fmt.Sprintf("%s = %s", formatTemp(dst), rhs)
}

func formatTemp(n int) string {
	return fmt.Sprintf("t%d", n)
}

func formatTemps(temps []int) string {
	parts := make([]string, len(temps))
	for i, t := range temps {
		parts[i] = formatTemp(t)
	}
	return strings.Join(parts, ", ")
}
