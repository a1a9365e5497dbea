package value

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntArithmetic(t *testing.T) {
	cases := []struct {
		op   string
		a, b int64
		want Value
	}{
		{"+", 2, 3, Int{V: 5}},
		{"-", 2, 3, Int{V: -1}},
		{"*", 4, -3, Int{V: -12}},
		{"/", 7, 2, Int{V: 3}},
		{"/", -7, 2, Int{V: -3}},
		{"%", 7, 2, Int{V: 1}},
		{"%", -7, 2, Int{V: -1}},
		{"<", 1, 2, Bool{V: true}},
		{"<=", 2, 2, Bool{V: true}},
		{">", 1, 2, Bool{V: false}},
		{">=", 3, 2, Bool{V: true}},
	}
	for _, tc := range cases {
		got, err := EvalBinary(tc.op, Int{V: tc.a}, Int{V: tc.b})
		require.NoError(t, err, "%d %s %d", tc.a, tc.op, tc.b)
		assert.True(t, tc.want.Equal(got), "%d %s %d = %s, want %s", tc.a, tc.op, tc.b, got, tc.want)
	}
}

func TestIntWrapping(t *testing.T) {
	got, err := EvalBinary("+", Int{V: math.MaxInt64}, Int{V: 1})
	require.NoError(t, err)
	assert.True(t, Int{V: math.MinInt64}.Equal(got))

	got, err = EvalBinary("/", Int{V: math.MinInt64}, Int{V: -1})
	require.NoError(t, err)
	assert.True(t, Int{V: math.MinInt64}.Equal(got))

	got, err = EvalBinary("%", Int{V: math.MinInt64}, Int{V: -1})
	require.NoError(t, err)
	assert.True(t, Int{V: 0}.Equal(got))

	got, err = EvalUnary("-", Int{V: math.MinInt64})
	require.NoError(t, err)
	assert.True(t, Int{V: math.MinInt64}.Equal(got))
}

func TestDivideByZero(t *testing.T) {
	_, err := EvalBinary("/", Int{V: 1}, Int{V: 0})
	assert.True(t, errors.Is(err, ErrDivideByZero))

	_, err = EvalBinary("%", Int{V: 1}, Int{V: 0})
	assert.True(t, errors.Is(err, ErrDivideByZero))
}

func TestStringOps(t *testing.T) {
	got, err := EvalBinary("+", String{V: "ab"}, String{V: "cd"})
	require.NoError(t, err)
	assert.True(t, String{V: "abcd"}.Equal(got))

	got, err = EvalBinary("<", String{V: "abc"}, String{V: "abd"})
	require.NoError(t, err)
	assert.True(t, Bool{V: true}.Equal(got))

	_, err = EvalBinary("*", String{V: "ab"}, String{V: "cd"})
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestEqualityOperators(t *testing.T) {
	got, err := EvalBinary("==", Int{V: 1}, Int{V: 1})
	require.NoError(t, err)
	assert.True(t, Bool{V: true}.Equal(got))

	// Cross-kind comparison is legal and unequal, never a fault.
	got, err = EvalBinary("==", Int{V: 1}, Bool{V: true})
	require.NoError(t, err)
	assert.True(t, Bool{V: false}.Equal(got))

	got, err = EvalBinary("!=", String{V: "a"}, String{V: "b"})
	require.NoError(t, err)
	assert.True(t, Bool{V: true}.Equal(got))

	deep, err := EvalBinary("==",
		Array{Elems: []Value{Int{V: 1}, Int{V: 2}}},
		Array{Elems: []Value{Int{V: 1}, Int{V: 2}}})
	require.NoError(t, err)
	assert.True(t, Bool{V: true}.Equal(deep))
}

func TestBoolOps(t *testing.T) {
	got, err := EvalBinary("&&", Bool{V: true}, Bool{V: false})
	require.NoError(t, err)
	assert.True(t, Bool{V: false}.Equal(got))

	got, err = EvalBinary("||", Bool{V: true}, Bool{V: false})
	require.NoError(t, err)
	assert.True(t, Bool{V: true}.Equal(got))

	got, err = EvalUnary("!", Bool{V: true})
	require.NoError(t, err)
	assert.True(t, Bool{V: false}.Equal(got))

	_, err = EvalBinary("&&", Int{V: 1}, Int{V: 1})
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestTypeMismatches(t *testing.T) {
	_, err := EvalBinary("+", Int{V: 1}, String{V: "x"})
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = EvalBinary("+", Unit{}, Unit{})
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = EvalUnary("-", Bool{V: true})
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = EvalUnary("!", Int{V: 1})
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestUnknownOperators(t *testing.T) {
	_, err := EvalBinary("**", Int{V: 2}, Int{V: 3})
	assert.Error(t, err)

	_, err = EvalUnary("~", Int{V: 2})
	assert.True(t, errors.Is(err, ErrUnknownOp))

	assert.True(t, IsBinaryOp("+"))
	assert.True(t, IsBinaryOp("&&"))
	assert.False(t, IsBinaryOp("**"))
	assert.True(t, IsUnaryOp("!"))
	assert.True(t, IsUnaryOp("-"))
	assert.False(t, IsUnaryOp("+"))
}
