package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
	"github.com/cpunion/dast-lang/internal/verifier"
)

// run parses, verifies and executes the entry function of src.
func run(t *testing.T, src string, args ...value.Value) (value.Value, *Fault) {
	t.Helper()
	prog, err := ir.Parse(src)
	require.NoError(t, err)
	require.Empty(t, verifier.Verify(prog), "program must verify before running")
	return New(prog).RunEntry(args)
}

func requireInt(t *testing.T, v value.Value, fault *Fault, want int64) {
	t.Helper()
	require.Nil(t, fault)
	n, ok := v.(value.Int)
	require.True(t, ok, "want int, got %T", v)
	assert.Equal(t, want, n.V)
}

func TestRunAdd(t *testing.T) {
	src := `ir v0
entry main

fn main() -> i64
block entry:
  t0 = const 2
  t1 = const 3
  t2 = call add(t0, t1)
  return t2

fn add(a: i64, b: i64) -> i64
block entry:
  t0 = load a
  t1 = load b
  t2 = + t0, t1
  return t2
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 5)
}

func TestRunEntryArgs(t *testing.T) {
	src := `ir v0
entry double

fn double(x)
block entry:
  t0 = load x
  t1 = + t0, t0
  return t1
`
	v, fault := run(t, src, value.Int{V: 21})
	requireInt(t, v, fault, 42)
}

func TestRunNoEntry(t *testing.T) {
	prog, err := ir.Parse("ir v0\n\nfn f()\nblock entry:\n  return\n")
	require.NoError(t, err)
	_, fault := New(prog).RunEntry(nil)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrUndefinedFunction, fault.Code)

	// An explicit name still works without an entry declaration.
	v, fault := New(prog).Run("f", nil)
	require.Nil(t, fault)
	assert.True(t, value.Unit{}.Equal(v))
}

func TestRunUndeclaredFunction(t *testing.T) {
	prog, err := ir.Parse("ir v0\n\nfn f()\nblock entry:\n  return\n")
	require.NoError(t, err)
	_, fault := New(prog).Run("g", nil)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrUndefinedFunction, fault.Code)
	assert.Contains(t, fault.Message, "`g`")
}

func TestRunArityMismatch(t *testing.T) {
	src := "ir v0\nentry f\n\nfn f(a)\nblock entry:\n  return\n"
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrTypeMismatch, fault.Code)
	assert.Contains(t, fault.Message, "takes 1 arguments, got 0")
}

func TestRunBranchAndLoop(t *testing.T) {
	// Sum 1..n with a header/body/exit loop.
	src := `ir v0
entry sum

fn sum(n)
block entry:
  t0 = const 0
  store acc, t0
  t1 = const 1
  store i, t1
  jump head
block head:
  t2 = load i
  t3 = load n
  t4 = <= t2, t3
  branch t4, body, done
block body:
  t5 = load acc
  t6 = + t5, t2
  store acc, t6
  t7 = const 1
  t8 = + t2, t7
  store i, t8
  jump head
block done:
  t9 = load acc
  return t9
`
	v, fault := run(t, src, value.Int{V: 10})
	requireInt(t, v, fault, 55)
}

func TestRunBranchOnNonBool(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  branch t0, a, b
block a:
  return
block b:
  return
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrTypeMismatch, fault.Code)
	assert.Contains(t, fault.Message, "branch condition")
}

func TestRunDivideByZero(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  t1 = const 0
  t2 = / t0, t1
  return t2
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrArithmetic, fault.Code)
	assert.Equal(t, "f", fault.Function)
	assert.Equal(t, "entry", fault.Block)
	assert.Equal(t, 2, fault.Instr)
}

func TestRunOperatorTypeMismatch(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  t1 = const true
  t2 = + t0, t1
  return t2
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrTypeMismatch, fault.Code)
}

func TestRunRecursion(t *testing.T) {
	src := `ir v0
entry fac

fn fac(n)
block entry:
  t0 = load n
  t1 = const 1
  t2 = <= t0, t1
  branch t2, base, rec
block base:
  t3 = const 1
  return t3
block rec:
  t4 = - t0, t1
  t5 = call fac(t4)
  t6 = * t0, t5
  return t6
`
	v, fault := run(t, src, value.Int{V: 10})
	requireInt(t, v, fault, 3628800)
}

func TestRunStackOverflow(t *testing.T) {
	src := `ir v0
entry spin

fn spin()
block entry:
  call spin()
  return
`
	prog, err := ir.Parse(src)
	require.NoError(t, err)
	require.Empty(t, verifier.Verify(prog))
	_, fault := New(prog, WithMaxDepth(64)).RunEntry(nil)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrStackOverflow, fault.Code)
	assert.Contains(t, fault.Message, "64")
}

func TestRunCallIsByValue(t *testing.T) {
	// The callee mutates its copy of the array; the caller's stays intact.
	src := `ir v0
entry main

fn main()
block entry:
  t0 = const 1
  t1 = make_array t0
  call smash(t1)
  t2 = const 0
  t3 = index t1, t2
  return t3

fn smash(a)
block entry:
  t0 = load a
  t1 = const 0
  t2 = const 99
  set_index t0, t1, t2
  return
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 1)
}

func TestRunRefsAlias(t *testing.T) {
	// addr promotes x to the heap; a write through the ref is visible to a
	// later load of x.
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  store x, t0
  t1 = addr x
  t2 = const 7
  store_ref t1, t2
  t3 = load x
  return t3
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 7)
}

func TestRunRefAcrossCall(t *testing.T) {
	// A ref passed to a callee writes back into the caller's variable.
	src := `ir v0
entry main

fn main()
block entry:
  t0 = const 0
  store x, t0
  t1 = addr x
  call bump(t1)
  t2 = load x
  return t2

fn bump(p)
block entry:
  t0 = load p
  t1 = load_ref t0
  t2 = const 1
  t3 = + t1, t2
  store_ref t0, t3
  return
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 1)
}

func TestRunLoadRefNonRef(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 3
  t1 = load_ref t0
  return t1
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrTypeMismatch, fault.Code)
	assert.Contains(t, fault.Message, "load_ref")
}

func TestRunIndexBounds(t *testing.T) {
	mk := func(indexOp string) string {
		return `ir v0
entry f

fn f()
block entry:
  t0 = const 10
  t1 = const 20
  t2 = make_array t0, t1
  t3 = const 5
  t4 = ` + indexOp + ` t2, t3
  return t4
`
	}

	// Checked out-of-range access faults.
	_, fault := run(t, mk("index"))
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrBoundsViolation, fault.Code)
	assert.Contains(t, fault.Message, "index 5 out of range for length 2")

	// The unchecked form does not fault; its result is unspecified.
	_, fault = run(t, mk("index_unchecked"))
	assert.Nil(t, fault)
}

func TestRunIndexInRange(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 10
  t1 = const 20
  t2 = make_array t0, t1
  t3 = const 1
  t4 = index t2, t3
  t5 = index_unchecked t2, t3
  t6 = + t4, t5
  return t6
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 40)
}

func TestRunSetIndexMutatesInPlace(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 10
  t1 = make_array t0
  t2 = const 0
  t3 = const 42
  set_index t1, t2, t3
  t4 = index t1, t2
  return t4
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 42)
}

func TestRunSetIndexOutOfRange(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 10
  t1 = make_array t0
  t2 = const 3
  t3 = const 42
  set_index t1, t2, t3
  return
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrBoundsViolation, fault.Code)
}

func TestRunStoreSnapshotsValue(t *testing.T) {
	// Storing an array then mutating the temp's copy must not change the
	// stored snapshot.
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  t1 = make_array t0
  store saved, t1
  t2 = load saved
  t3 = const 0
  t4 = const 99
  set_index t2, t3, t4
  t5 = load saved
  t6 = index t5, t3
  return t6
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 1)
}

func TestRunStructOps(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 3
  t1 = const 4
  t2 = make_struct Point {x: t0, y: t1}
  t3 = const 10
  set_field t2, y, t3
  t4 = get_field t2, x
  t5 = get_field t2, y
  t6 = + t4, t5
  return t6
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 13)
}

func TestRunMissingField(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 3
  t1 = make_struct Point {x: t0}
  t2 = get_field t1, z
  return t2
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrMissingField, fault.Code)
	assert.Contains(t, fault.Message, "`Point` has no field `z`")
}

func TestRunEnumOps(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 7
  t1 = make_enum Opt::Some, 1, i32, t0
  t2 = enum_tag t1
  t3 = enum_payload t1
  t4 = + t2, t3
  return t4
`
	v, fault := run(t, src)
	requireInt(t, v, fault, 8)
}

func TestRunEnumPayloadAbsent(t *testing.T) {
	src := `ir v0
entry f

fn f()
block entry:
  t0 = make_enum Opt::None, 0, i32
  t1 = enum_payload t0
  return t1
`
	_, fault := run(t, src)
	require.NotNil(t, fault)
	assert.Equal(t, diagnostics.ErrMissingVariant, fault.Code)
	assert.Contains(t, fault.Message, "Opt::None")
}

func TestRunFaultError(t *testing.T) {
	f := &Fault{
		Code:     diagnostics.ErrArithmetic,
		Message:  "division by zero",
		Function: "f",
		Block:    "entry",
		Instr:    2,
	}
	var err error = f
	assert.Contains(t, err.Error(), diagnostics.ErrArithmetic)
	assert.Contains(t, err.Error(), "division by zero")
}
