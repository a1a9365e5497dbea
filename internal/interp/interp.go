// Package interp is the reference evaluator for verified programs: a
// structured interpreter over basic blocks with one heap arena per run.
// Execution is single threaded and synchronous; nothing is shared between
// runs.
package interp

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cpunion/dast-lang/internal/diagnostics"
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/value"
)

// MaxDepth bounds the call stack. The IR imposes no depth limit but the
// host stack is finite; hitting the cap is a StackOverflow fault instead of
// an unrecoverable crash.
const MaxDepth = 10000

// Interpreter executes one verified program. The caller is responsible for
// running the verifier first; the pipeline enforces that gate.
type Interpreter struct {
	prog     *ir.Program
	heap     *heap
	logger   *zap.Logger
	maxDepth int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger attaches a structured logger for call tracing.
func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithMaxDepth overrides the call-depth cap.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) { in.maxDepth = n }
}

// New creates an interpreter for a verified program.
func New(prog *ir.Program, opts ...Option) *Interpreter {
	in := &Interpreter{
		prog:     prog,
		heap:     &heap{},
		logger:   zap.NewNop(),
		maxDepth: MaxDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// RunEntry executes the program's entry function.
func (in *Interpreter) RunEntry(args []value.Value) (value.Value, *Fault) {
	if in.prog.Entry == "" {
		return nil, &Fault{
			Code:    diagnostics.ErrUndefinedFunction,
			Message: "program declares no entry function",
			Instr:   -1,
		}
	}
	return in.Run(in.prog.Entry, args)
}

// Run executes the named function with the given arguments and returns the
// terminal value or the fault that aborted execution.
func (in *Interpreter) Run(fnName string, args []value.Value) (value.Value, *Fault) {
	fn := in.prog.Lookup(fnName)
	if fn == nil {
		return nil, &Fault{
			Code:    diagnostics.ErrUndefinedFunction,
			Message: fmt.Sprintf("call to undeclared function `%s`", fnName),
			Instr:   -1,
		}
	}
	return in.call(fn, args, 1)
}

// frame is one function activation: the numbered temporaries, the local
// bindings, and the local-to-heap-slot promotions made by addr.
type frame struct {
	fn    *ir.Function
	temps []value.Value
	vars  map[string]value.Value
	slots map[string]int
}

func (in *Interpreter) call(fn *ir.Function, args []value.Value, depth int) (value.Value, *Fault) {
	if depth > in.maxDepth {
		return nil, &Fault{
			Code:     diagnostics.ErrStackOverflow,
			Message:  fmt.Sprintf("call depth exceeds %d", in.maxDepth),
			Function: fn.Name,
			Instr:    -1,
		}
	}
	if len(args) != len(fn.Params) {
		return nil, &Fault{
			Code:     diagnostics.ErrTypeMismatch,
			Message:  fmt.Sprintf("`%s` takes %d arguments, got %d", fn.Name, len(fn.Params), len(args)),
			Function: fn.Name,
			Instr:    -1,
		}
	}
	in.logger.Debug("call", zap.String("fn", fn.Name), zap.Int("depth", depth))

	f := &frame{
		fn:    fn,
		temps: make([]value.Value, fn.TempCount),
		vars:  make(map[string]value.Value, len(fn.Params)),
		slots: map[string]int{},
	}
	for i := range f.temps {
		f.temps[i] = value.Unit{}
	}
	for i, p := range fn.Params {
		f.vars[p] = args[i].Clone()
	}

	if len(fn.Blocks) == 0 {
		return value.Unit{}, nil
	}

	block := fn.Blocks[0]
	for {
		for idx, instr := range block.Instrs {
			if fault := in.exec(f, block, idx, instr, depth); fault != nil {
				return nil, fault
			}
		}
		switch t := block.Term.(type) {
		case *ir.Jump:
			block = fn.BlockByLabel(t.Target)
		case *ir.Branch:
			cond, ok := f.temps[t.Cond].(value.Bool)
			if !ok {
				return nil, in.faultf(f, block, -1, diagnostics.ErrTypeMismatch,
					"branch condition is %s, not bool", f.temps[t.Cond].Kind())
			}
			if cond.V {
				block = fn.BlockByLabel(t.Then)
			} else {
				block = fn.BlockByLabel(t.Else)
			}
		case *ir.Return:
			if t.HasValue {
				return f.temps[t.Src].Clone(), nil
			}
			return value.Unit{}, nil
		default:
			return nil, in.faultf(f, block, -1, diagnostics.ErrUnverified,
				"block `%s` has no terminator", block.Label)
		}
		if block == nil {
			// Unreachable on verified input; jump targets are checked.
			return nil, in.faultf(f, nil, -1, diagnostics.ErrUnverified,
				"transfer to unknown block")
		}
	}
}

func (in *Interpreter) faultf(f *frame, block *ir.Block, idx int, code, format string, args ...any) *Fault {
	label := ""
	if block != nil {
		label = block.Label
	}
	return &Fault{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Function: f.fn.Name,
		Block:    label,
		Instr:    idx,
	}
}

// readVar returns the current value of a local, following its heap slot if
// addr promoted it.
func (in *Interpreter) readVar(f *frame, name string) (value.Value, bool) {
	if slot, ok := f.slots[name]; ok {
		v, ok := in.heap.load(slot)
		return v, ok
	}
	v, ok := f.vars[name]
	return v, ok
}

func (in *Interpreter) writeVar(f *frame, name string, v value.Value) {
	if slot, ok := f.slots[name]; ok {
		in.heap.store(slot, v)
		return
	}
	f.vars[name] = v
}

func (in *Interpreter) exec(f *frame, block *ir.Block, idx int, instr ir.Instr, depth int) *Fault {
	fault := func(code, format string, args ...any) *Fault {
		return in.faultf(f, block, idx, code, format, args...)
	}

	switch i := instr.(type) {
	case *ir.Const:
		f.temps[i.Dst] = i.Value.Clone()

	case *ir.Load:
		v, ok := in.readVar(f, i.Var)
		if !ok {
			return fault(diagnostics.ErrUnverified, "read of unbound variable `%s`", i.Var)
		}
		f.temps[i.Dst] = v.Clone()

	case *ir.Store:
		in.writeVar(f, i.Var, f.temps[i.Src].Clone())

	case *ir.AddrOf:
		slot, ok := f.slots[i.Var]
		if !ok {
			cur, bound := f.vars[i.Var]
			if !bound {
				return fault(diagnostics.ErrUnverified, "address of unbound variable `%s`", i.Var)
			}
			slot = in.heap.alloc(cur)
			f.slots[i.Var] = slot
			delete(f.vars, i.Var)
		}
		f.temps[i.Dst] = value.Ref{Slot: slot}

	case *ir.LoadRef:
		ref, ok := f.temps[i.Ref].(value.Ref)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "load_ref of %s, not ref", f.temps[i.Ref].Kind())
		}
		v, ok := in.heap.load(ref.Slot)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "reference to invalid slot %d", ref.Slot)
		}
		f.temps[i.Dst] = v.Clone()

	case *ir.StoreRef:
		ref, ok := f.temps[i.Ref].(value.Ref)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "store_ref to %s, not ref", f.temps[i.Ref].Kind())
		}
		if !in.heap.store(ref.Slot, f.temps[i.Src].Clone()) {
			return fault(diagnostics.ErrTypeMismatch, "reference to invalid slot %d", ref.Slot)
		}

	case *ir.Unary:
		v, err := value.EvalUnary(i.Op, f.temps[i.X])
		if err != nil {
			return fault(opFaultCode(err), "%s", err)
		}
		f.temps[i.Dst] = v

	case *ir.Binary:
		v, err := value.EvalBinary(i.Op, f.temps[i.Left], f.temps[i.Right])
		if err != nil {
			return fault(opFaultCode(err), "%s", err)
		}
		f.temps[i.Dst] = v

	case *ir.Call:
		callee := in.prog.Lookup(i.Target)
		if callee == nil {
			return fault(diagnostics.ErrUndefinedFunction, "call to undeclared function `%s`", i.Target)
		}
		args := make([]value.Value, len(i.Args))
		for n, a := range i.Args {
			args[n] = f.temps[a].Clone()
		}
		ret, callFault := in.call(callee, args, depth+1)
		if callFault != nil {
			return callFault
		}
		if i.Dst != ir.NoTemp {
			f.temps[i.Dst] = ret
		}

	case *ir.MakeArray:
		elems := make([]value.Value, len(i.Elems))
		for n, e := range i.Elems {
			elems[n] = f.temps[e].Clone()
		}
		f.temps[i.Dst] = value.Array{Elems: elems}

	case *ir.Index:
		arr, n, fk := f.indexOperands(i.Array, i.Idx)
		if fk != "" {
			return fault(diagnostics.ErrTypeMismatch, "%s", fk)
		}
		if n < 0 || n >= int64(len(arr.Elems)) {
			return fault(diagnostics.ErrBoundsViolation, "index %d out of range for length %d", n, len(arr.Elems))
		}
		f.temps[i.Dst] = arr.Elems[n].Clone()

	case *ir.IndexUnchecked:
		arr, n, fk := f.indexOperands(i.Array, i.Idx)
		if fk != "" {
			return fault(diagnostics.ErrTypeMismatch, "%s", fk)
		}
		// Out-of-range unchecked access is undefined behavior. This
		// implementation yields unit rather than crashing the host; any
		// result at all would be a conforming choice.
		if n < 0 || n >= int64(len(arr.Elems)) {
			f.temps[i.Dst] = value.Unit{}
			break
		}
		f.temps[i.Dst] = arr.Elems[n].Clone()

	case *ir.SetIndex:
		arr, n, fk := f.indexOperands(i.Array, i.Idx)
		if fk != "" {
			return fault(diagnostics.ErrTypeMismatch, "%s", fk)
		}
		if n < 0 || n >= int64(len(arr.Elems)) {
			return fault(diagnostics.ErrBoundsViolation, "index %d out of range for length %d", n, len(arr.Elems))
		}
		arr.Elems[n] = f.temps[i.Src].Clone()

	case *ir.SetIndexUnchecked:
		arr, n, fk := f.indexOperands(i.Array, i.Idx)
		if fk != "" {
			return fault(diagnostics.ErrTypeMismatch, "%s", fk)
		}
		// See IndexUnchecked: out-of-range writes are undefined behavior
		// and are dropped here.
		if n >= 0 && n < int64(len(arr.Elems)) {
			arr.Elems[n] = f.temps[i.Src].Clone()
		}

	case *ir.MakeStruct:
		fields := make([]value.Field, len(i.Fields))
		for n, fi := range i.Fields {
			fields[n] = value.Field{Name: fi.Name, Value: f.temps[fi.Src].Clone()}
		}
		f.temps[i.Dst] = value.Struct{Name: i.Name, Fields: fields}

	case *ir.GetField:
		st, ok := f.temps[i.Base].(value.Struct)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "get_field of %s, not struct", f.temps[i.Base].Kind())
		}
		n := st.FieldIndex(i.Field)
		if n < 0 {
			return fault(diagnostics.ErrMissingField, "struct `%s` has no field `%s`", st.Name, i.Field)
		}
		f.temps[i.Dst] = st.Fields[n].Value.Clone()

	case *ir.SetField:
		st, ok := f.temps[i.Base].(value.Struct)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "set_field of %s, not struct", f.temps[i.Base].Kind())
		}
		n := st.FieldIndex(i.Field)
		if n < 0 {
			return fault(diagnostics.ErrMissingField, "struct `%s` has no field `%s`", st.Name, i.Field)
		}
		st.Fields[n].Value = f.temps[i.Src].Clone()

	case *ir.MakeEnum:
		e := value.Enum{Name: i.Name, Variant: i.Variant, Tag: i.Tag, TagWidth: i.TagWidth}
		if i.Payload != ir.NoTemp {
			e.Payload = f.temps[i.Payload].Clone()
		}
		f.temps[i.Dst] = e

	case *ir.EnumTag:
		e, ok := f.temps[i.Base].(value.Enum)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "enum_tag of %s, not enum", f.temps[i.Base].Kind())
		}
		f.temps[i.Dst] = value.Int{V: e.Tag, Width: e.TagWidth}

	case *ir.EnumPayload:
		e, ok := f.temps[i.Base].(value.Enum)
		if !ok {
			return fault(diagnostics.ErrTypeMismatch, "enum_payload of %s, not enum", f.temps[i.Base].Kind())
		}
		if e.Payload == nil {
			return fault(diagnostics.ErrMissingVariant, "variant `%s::%s` carries no payload", e.Name, e.Variant)
		}
		f.temps[i.Dst] = e.Payload.Clone()

	default:
		return fault(diagnostics.ErrUnverified, "unknown instruction %T", instr)
	}
	return nil
}

// indexOperands fetches and checks the array and index operands shared by
// the four indexing instructions. The returned string is empty on success
// and a fault message otherwise.
func (f *frame) indexOperands(arrayTemp, idxTemp int) (value.Array, int64, string) {
	arr, ok := f.temps[arrayTemp].(value.Array)
	if !ok {
		return value.Array{}, 0, fmt.Sprintf("index of %s, not array", f.temps[arrayTemp].Kind())
	}
	n, ok := f.temps[idxTemp].(value.Int)
	if !ok {
		return value.Array{}, 0, fmt.Sprintf("index by %s, not int", f.temps[idxTemp].Kind())
	}
	return arr, n.V, ""
}

func opFaultCode(err error) string {
	if errors.Is(err, value.ErrDivideByZero) {
		return diagnostics.ErrArithmetic
	}
	return diagnostics.ErrTypeMismatch
}
