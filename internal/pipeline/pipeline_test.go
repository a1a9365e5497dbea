package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/interp"
	"github.com/cpunion/dast-lang/internal/value"
)

const addSrc = `ir v0
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

func TestPrintCanonicalizes(t *testing.T) {
	p := New(nil)
	// Same program, sloppier spacing between functions.
	src := strings.Replace(addSrc, "\n\nfn add", "\n\n\n\nfn add", 1)
	out, err := p.Print(src)
	require.NoError(t, err)
	assert.Equal(t, addSrc, out)
	assert.False(t, p.Bag().HasErrors())
}

func TestPrintParseError(t *testing.T) {
	p := New(nil)
	_, err := p.Print("not ir at all\n")
	require.Error(t, err)
	require.True(t, p.Bag().HasErrors())
	assert.Equal(t, diagnostics.ErrMalformedText, p.Bag().Diagnostics()[0].Code)
}

func TestCheckText(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.CheckText(addSrc))
	assert.False(t, p.Bag().HasErrors())
}

func TestCheckTextCollectsAllViolations(t *testing.T) {
	p := New(nil)
	err := p.CheckText(`ir v0
entry nowhere

fn f()
block entry:
  t0 = load x
  jump gone
`)
	require.Error(t, err)
	// Entry, jump target and uninitialized read all surface at once.
	assert.Equal(t, 3, p.Bag().ErrorCount())
	assert.Contains(t, err.Error(), "V0003")
	assert.Contains(t, err.Error(), "V0007")
	assert.Contains(t, err.Error(), "V0011")
}

func TestRunEntry(t *testing.T) {
	p := New(nil)
	v, err := p.Run(addSrc, "", nil)
	require.NoError(t, err)
	assert.True(t, value.Int{V: 5}.Equal(v))
}

func TestRunNamedFunction(t *testing.T) {
	p := New(nil)
	v, err := p.Run(addSrc, "add", []value.Value{value.Int{V: 20}, value.Int{V: 22}})
	require.NoError(t, err)
	assert.True(t, value.Int{V: 42}.Equal(v))
}

func TestRunGatesOnVerification(t *testing.T) {
	p := New(nil)
	_, err := p.Run("ir v0\n\nfn f()\nblock entry:\n  t0 = load x\n  return\n", "f", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
	assert.True(t, p.Bag().HasErrors())
}

func TestRunFaultIsTheError(t *testing.T) {
	p := New(nil)
	src := `ir v0
entry f

fn f()
block entry:
  t0 = const 1
  t1 = const 0
  t2 = / t0, t1
  return t2
`
	_, err := p.Run(src, "", nil)
	require.Error(t, err)
	var fault *interp.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, diagnostics.ErrArithmetic, fault.Code)
	// A fault is not a diagnostic; the bag stays clean.
	assert.False(t, p.Bag().HasErrors())
}

func TestOptFlow(t *testing.T) {
	p := New(nil)
	out, err := p.Opt(`ir v0
entry f

fn f()
block entry:
  t0 = const true
  branch t0, yes, no
block yes:
  t1 = const 2
  t2 = + t1, t1
  return t2
block no:
  return
`)
	require.NoError(t, err)
	assert.NotContains(t, out, "block no:")
	assert.Contains(t, out, "t2 = const 4")

	// The optimized text is itself a valid program with the same result.
	v, err := New(nil).Run(out, "", nil)
	require.NoError(t, err)
	assert.True(t, value.Int{V: 4}.Equal(v))
}

func TestOptGatesOnVerification(t *testing.T) {
	p := New(nil)
	_, err := p.Opt("ir v0\n\nfn f()\nblock entry:\n  jump gone\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
}
