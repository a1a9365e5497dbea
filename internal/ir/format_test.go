package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cpunion/dast-lang/internal/value"
)

func TestFormatAddProgram(t *testing.T) {
	prog := &Program{
		Version: Version,
		Functions: []*Function{{
			Name:       "add",
			Params:     []string{"a", "b"},
			ParamTypes: []string{"i64", "i64"},
			ReturnType: "i64",
			TempCount:  3,
			Blocks: []*Block{{
				Label: "entry",
				Instrs: []Instr{
					&Load{Dst: 0, Var: "a"},
					&Load{Dst: 1, Var: "b"},
					&Binary{Dst: 2, Op: "+", Left: 0, Right: 1},
				},
				Term: &Return{Src: 2, HasValue: true},
			}},
		}},
	}

	want := `ir v0

fn add(a: i64, b: i64) -> i64
block entry:
  t0 = load a
  t1 = load b
  t2 = + t0, t1
  return t2
`
	assert.Equal(t, want, Format(prog))
}

func TestFormatEntryLine(t *testing.T) {
	prog := &Program{
		Version: Version,
		Entry:   "main",
		Functions: []*Function{{
			Name:   "main",
			Blocks: []*Block{{Label: "entry", Term: &Return{}}},
		}},
	}

	want := `ir v0
entry main

fn main()
block entry:
  return
`
	assert.Equal(t, want, Format(prog))
}

func TestFormatInstrForms(t *testing.T) {
	cases := []struct {
		instr Instr
		want  string
	}{
		{&Const{Dst: 0, Value: value.Int{V: 42}}, "t0 = const 42"},
		{&Const{Dst: 0, Value: value.Int{V: -7, Width: "i32"}}, "t0 = const -7 i32"},
		{&Const{Dst: 0, Value: value.Bool{V: true}}, "t0 = const true"},
		{&Const{Dst: 0, Value: value.String{V: "a\nb"}}, `t0 = const "a\nb"`},
		{&Const{Dst: 0, Value: value.Unit{}}, "t0 = const unit"},
		{&Store{Var: "x", Src: 1}, "store x, t1"},
		{&AddrOf{Dst: 2, Var: "x"}, "t2 = addr x"},
		{&LoadRef{Dst: 3, Ref: 2}, "t3 = load_ref t2"},
		{&StoreRef{Ref: 2, Src: 1}, "store_ref t2, t1"},
		{&Unary{Dst: 1, Op: "!", X: 0}, "t1 = ! t0"},
		{&Call{Dst: 2, Target: "f", Args: []int{0, 1}}, "t2 = call f(t0, t1)"},
		{&Call{Dst: NoTemp, Target: "f", Args: nil}, "call f()"},
		{&MakeArray{Dst: 0, Elems: []int{}}, "t0 = make_array"},
		{&MakeArray{Dst: 2, Elems: []int{0, 1}}, "t2 = make_array t0, t1"},
		{&Index{Dst: 2, Array: 0, Idx: 1}, "t2 = index t0, t1"},
		{&IndexUnchecked{Dst: 2, Array: 0, Idx: 1}, "t2 = index_unchecked t0, t1"},
		{&SetIndex{Array: 0, Idx: 1, Src: 2}, "set_index t0, t1, t2"},
		{&SetIndexUnchecked{Array: 0, Idx: 1, Src: 2}, "set_index_unchecked t0, t1, t2"},
		{&MakeStruct{Dst: 2, Name: "Point", Fields: []FieldInit{{"x", 0}, {"y", 1}}},
			"t2 = make_struct Point {x: t0, y: t1}"},
		{&MakeStruct{Dst: 0, Name: "Empty", Fields: nil}, "t0 = make_struct Empty {}"},
		{&GetField{Dst: 1, Base: 0, Field: "x"}, "t1 = get_field t0, x"},
		{&SetField{Base: 0, Field: "x", Src: 1}, "set_field t0, x, t1"},
		{&MakeEnum{Dst: 1, Name: "Opt", Variant: "Some", Tag: 1, TagWidth: "i32", Payload: 0},
			"t1 = make_enum Opt::Some, 1, i32, t0"},
		{&MakeEnum{Dst: 0, Name: "Opt", Variant: "None", Tag: 0, TagWidth: "i32", Payload: NoTemp},
			"t0 = make_enum Opt::None, 0, i32"},
		{&EnumTag{Dst: 1, Base: 0}, "t1 = enum_tag t0"},
		{&EnumPayload{Dst: 1, Base: 0}, "t1 = enum_payload t0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatInstr(tc.instr))
	}
}

func TestFormatTermForms(t *testing.T) {
	assert.Equal(t, "jump loop", FormatTerm(&Jump{Target: "loop"}))
	assert.Equal(t, "branch t0, then, else", FormatTerm(&Branch{Cond: 0, Then: "then", Else: "else"}))
	assert.Equal(t, "return", FormatTerm(&Return{}))
	assert.Equal(t, "return t3", FormatTerm(&Return{Src: 3, HasValue: true}))
}

func TestFormatDebugConstForms(t *testing.T) {
	assert.Equal(t, "&5", FormatConst(value.Ref{Slot: 5}))
	assert.Equal(t, "struct#2", FormatConst(value.Struct{Name: "S", Fields: []value.Field{
		{Name: "a", Value: value.Int{V: 1}},
		{Name: "b", Value: value.Int{V: 2}},
	}}))
	assert.Equal(t, "enum#3", FormatConst(value.Enum{Name: "E", Variant: "C", Tag: 3}))
	assert.Equal(t, "array#0", FormatConst(value.Array{}))
}
