package value

import (
	"math"

	"github.com/pkg/errors"
)

// The fixed v0 operator set. The interpreter and the constant folder both
// evaluate operators through EvalBinary/EvalUnary, so folded results can
// never diverge from executed ones.

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrTypeMismatch = errors.New("operand type mismatch")
	ErrUnknownOp    = errors.New("unknown operator")
)

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true,
}

var unaryOps = map[string]bool{
	"!": true, "-": true,
}

// IsBinaryOp reports membership in the v0 binary operator set.
func IsBinaryOp(op string) bool { return binaryOps[op] }

// IsUnaryOp reports membership in the v0 unary operator set.
func IsUnaryOp(op string) bool { return unaryOps[op] }

// EvalBinary applies a v0 binary operator. Integer arithmetic wraps in
// two's complement; division and modulo by zero are faults, never folded.
func EvalBinary(op string, a, b Value) (Value, error) {
	switch op {
	case "==":
		return Bool{V: a.Equal(b)}, nil
	case "!=":
		return Bool{V: !a.Equal(b)}, nil
	}

	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "%s on %s and %s", op, a.Kind(), b.Kind())
		}
		return evalIntBinary(op, av.V, bv.V)
	case String:
		bv, ok := b.(String)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "%s on %s and %s", op, a.Kind(), b.Kind())
		}
		return evalStringBinary(op, av.V, bv.V)
	case Bool:
		bv, ok := b.(Bool)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "%s on %s and %s", op, a.Kind(), b.Kind())
		}
		switch op {
		case "&&":
			return Bool{V: av.V && bv.V}, nil
		case "||":
			return Bool{V: av.V || bv.V}, nil
		}
		return nil, errors.Wrapf(ErrTypeMismatch, "%s on bool operands", op)
	}
	if !binaryOps[op] {
		return nil, errors.Wrap(ErrUnknownOp, op)
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "%s on %s and %s", op, a.Kind(), b.Kind())
}

func evalIntBinary(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		return Int{V: a + b}, nil
	case "-":
		return Int{V: a - b}, nil
	case "*":
		return Int{V: a * b}, nil
	case "/":
		if b == 0 {
			return nil, ErrDivideByZero
		}
		if a == math.MinInt64 && b == -1 {
			// Would trap in Go; the wrapped quotient is MinInt64.
			return Int{V: math.MinInt64}, nil
		}
		return Int{V: a / b}, nil
	case "%":
		if b == 0 {
			return nil, ErrDivideByZero
		}
		if a == math.MinInt64 && b == -1 {
			return Int{V: 0}, nil
		}
		return Int{V: a % b}, nil
	case "<":
		return Bool{V: a < b}, nil
	case "<=":
		return Bool{V: a <= b}, nil
	case ">":
		return Bool{V: a > b}, nil
	case ">=":
		return Bool{V: a >= b}, nil
	case "&&", "||":
		return nil, errors.Wrapf(ErrTypeMismatch, "%s on int operands", op)
	}
	return nil, errors.Wrap(ErrUnknownOp, op)
}

func evalStringBinary(op string, a, b string) (Value, error) {
	switch op {
	case "+":
		return String{V: a + b}, nil
	case "<":
		return Bool{V: a < b}, nil
	case "<=":
		return Bool{V: a <= b}, nil
	case ">":
		return Bool{V: a > b}, nil
	case ">=":
		return Bool{V: a >= b}, nil
	case "-", "*", "/", "%", "&&", "||":
		return nil, errors.Wrapf(ErrTypeMismatch, "%s on string operands", op)
	}
	return nil, errors.Wrap(ErrUnknownOp, op)
}

// EvalUnary applies a v0 unary operator.
func EvalUnary(op string, x Value) (Value, error) {
	switch op {
	case "!":
		xv, ok := x.(Bool)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "! on %s", x.Kind())
		}
		return Bool{V: !xv.V}, nil
	case "-":
		xv, ok := x.(Int)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "- on %s", x.Kind())
		}
		return Int{V: -xv.V}, nil
	}
	return nil, errors.Wrap(ErrUnknownOp, op)
}
