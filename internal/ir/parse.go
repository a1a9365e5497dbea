package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cpunion/dast-lang/internal/value"
)

// ParseConstLiteral parses a single constant literal, the same forms the
// parser accepts after `const`. Used by callers that take argument values
// as text.
func ParseConstLiteral(s string) (value.Value, error) {
	p := &parser{lines: []string{s}}
	sc := newScanner(p, s)
	v, err := p.parseConst(sc)
	if err != nil {
		return nil, err
	}
	if err := sc.end("end of literal"); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseError reports locally ill-formed text. Cross-reference problems
// (jump targets, temp bounds, operator membership) are the verifier's job.
type ParseError struct {
	Line int
	Col  int
	Want string
	Got  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, col %d: expected %s, found %s", e.Line, e.Col, e.Want, e.Got)
}

// Parse reads the text form emitted by Format back into a Program. Each
// function's TempCount is the smallest count covering every temporary the
// body references (the text form carries no explicit declaration).
func Parse(src string) (*Program, error) {
	p := &parser{lines: strings.Split(src, "\n")}
	return p.parseProgram()
}

type parser struct {
	lines []string
	n     int // index of the current line
}

func (p *parser) errf(col int, want, got string) *ParseError {
	if got == "" {
		got = "end of line"
	}
	return &ParseError{Line: p.n + 1, Col: col, Want: want, Got: got}
}

func (p *parser) cur() (string, bool) {
	if p.n >= len(p.lines) {
		return "", false
	}
	return p.lines[p.n], true
}

func (p *parser) skipBlank() {
	for p.n < len(p.lines) && strings.TrimSpace(p.lines[p.n]) == "" {
		p.n++
	}
}

func (p *parser) parseProgram() (*Program, error) {
	p.skipBlank()
	line, ok := p.cur()
	if !ok {
		return nil, p.errf(1, `header "ir v0"`, "end of input")
	}
	version, ok := strings.CutPrefix(line, "ir ")
	if !ok || version == "" || strings.ContainsAny(version, " \t") {
		return nil, p.errf(1, `header "ir v0"`, strconv.Quote(line))
	}
	p.n++

	prog := &Program{Version: version}
	if line, ok := p.cur(); ok {
		if entry, found := strings.CutPrefix(line, "entry "); found {
			if !isIdent(entry) {
				return nil, p.errf(len("entry ")+1, "an entry function name", strconv.Quote(entry))
			}
			prog.Entry = entry
			p.n++
		}
	}
	for {
		p.skipBlank()
		line, ok := p.cur()
		if !ok {
			return prog, nil
		}
		if !strings.HasPrefix(line, "fn ") {
			return nil, p.errf(1, `"fn"`, strconv.Quote(line))
		}
		fn, err := p.parseFunction(line)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
}

func (p *parser) parseFunction(line string) (*Function, error) {
	fn := &Function{}
	s := newScanner(p, line)
	s.skip(len("fn "))

	name, err := s.ident("function name")
	if err != nil {
		return nil, err
	}
	fn.Name = name

	if err := s.expect("("); err != nil {
		return nil, err
	}
	for !s.eat(")") {
		if len(fn.Params) > 0 {
			if err := s.expect(", "); err != nil {
				return nil, err
			}
		}
		param, err := s.ident("parameter name")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		typ := ""
		if s.eat(": ") {
			typ, err = s.ident("parameter type")
			if err != nil {
				return nil, err
			}
		}
		fn.ParamTypes = append(fn.ParamTypes, typ)
	}
	if allEmpty(fn.ParamTypes) {
		fn.ParamTypes = nil
	}
	if s.eat(" -> ") {
		fn.ReturnType, err = s.ident("return type")
		if err != nil {
			return nil, err
		}
	}
	if err := s.end("end of signature"); err != nil {
		return nil, err
	}
	p.n++

	for {
		line, ok := p.cur()
		if !ok || strings.TrimSpace(line) == "" || strings.HasPrefix(line, "fn ") {
			break
		}
		if !strings.HasPrefix(line, "block ") {
			return nil, p.errf(1, `"block"`, strconv.Quote(line))
		}
		block, err := p.parseBlock(line)
		if err != nil {
			return nil, err
		}
		fn.Blocks = append(fn.Blocks, block)
	}

	fn.TempCount = inferTempCount(fn)
	return fn, nil
}

func allEmpty(ss []string) bool {
	for _, s := range ss {
		if s != "" {
			return false
		}
	}
	return true
}

func (p *parser) parseBlock(line string) (*Block, error) {
	s := newScanner(p, line)
	s.skip(len("block "))
	label, err := s.ident("block label")
	if err != nil {
		return nil, err
	}
	if err := s.expect(":"); err != nil {
		return nil, err
	}
	if err := s.end("end of block header"); err != nil {
		return nil, err
	}
	p.n++

	block := &Block{Label: label}
	for {
		line, ok := p.cur()
		if !ok {
			break
		}
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == line || strings.TrimSpace(line) == "" {
			break // column-zero line or blank line closes the block
		}
		if block.Term != nil {
			return nil, p.errf(len(line)-len(trimmed)+1, "end of block after terminator", strconv.Quote(trimmed))
		}
		s := newScanner(p, line)
		s.skip(len(line) - len(trimmed))
		instr, term, err := p.parseLine(s)
		if err != nil {
			return nil, err
		}
		if term != nil {
			block.Term = term
		} else {
			block.Instrs = append(block.Instrs, instr)
		}
		p.n++
	}
	return block, nil
}

// parseLine parses one instruction or terminator line.
func (p *parser) parseLine(s *scanner) (Instr, Term, error) {
	if dst, ok := s.tryAssign(); ok {
		instr, err := p.parseAssign(s, dst)
		if err != nil {
			return nil, nil, err
		}
		if err := s.end("end of instruction"); err != nil {
			return nil, nil, err
		}
		return instr, nil, nil
	}

	word, err := s.word("instruction")
	if err != nil {
		return nil, nil, err
	}
	var instr Instr
	var term Term
	switch word {
	case "store":
		v, e := s.ident("variable name")
		if e == nil {
			e = s.expect(", ")
		}
		var src int
		if e == nil {
			src, e = s.temp()
		}
		if e != nil {
			return nil, nil, e
		}
		instr = &Store{Var: v, Src: src}
	case "store_ref":
		temps, e := s.temps(2)
		if e != nil {
			return nil, nil, e
		}
		instr = &StoreRef{Ref: temps[0], Src: temps[1]}
	case "set_index":
		temps, e := s.temps(3)
		if e != nil {
			return nil, nil, e
		}
		instr = &SetIndex{Array: temps[0], Idx: temps[1], Src: temps[2]}
	case "set_index_unchecked":
		temps, e := s.temps(3)
		if e != nil {
			return nil, nil, e
		}
		instr = &SetIndexUnchecked{Array: temps[0], Idx: temps[1], Src: temps[2]}
	case "set_field":
		base, e := s.temp()
		var field string
		var src int
		if e == nil {
			e = s.expect(", ")
		}
		if e == nil {
			field, e = s.ident("field name")
		}
		if e == nil {
			e = s.expect(", ")
		}
		if e == nil {
			src, e = s.temp()
		}
		if e != nil {
			return nil, nil, e
		}
		instr = &SetField{Base: base, Field: field, Src: src}
	case "call":
		c, e := p.parseCall(s, NoTemp)
		if e != nil {
			return nil, nil, e
		}
		instr = c
	case "jump":
		target, e := s.ident("jump target")
		if e != nil {
			return nil, nil, e
		}
		term = &Jump{Target: target}
	case "branch":
		cond, e := s.temp()
		var then, els string
		if e == nil {
			e = s.expect(", ")
		}
		if e == nil {
			then, e = s.ident("branch target")
		}
		if e == nil {
			e = s.expect(", ")
		}
		if e == nil {
			els, e = s.ident("branch target")
		}
		if e != nil {
			return nil, nil, e
		}
		term = &Branch{Cond: cond, Then: then, Else: els}
	case "return":
		if s.done() {
			term = &Return{}
		} else {
			src, e := s.temp()
			if e != nil {
				return nil, nil, e
			}
			term = &Return{Src: src, HasValue: true}
		}
	default:
		return nil, nil, s.fail("a recognized instruction", word)
	}
	if err := s.end("end of instruction"); err != nil {
		return nil, nil, err
	}
	return instr, term, nil
}

// parseAssign parses the right-hand side of "tN = ...".
func (p *parser) parseAssign(s *scanner, dst int) (Instr, error) {
	word, err := s.word("instruction")
	if err != nil {
		return nil, err
	}
	switch word {
	case "const":
		v, e := p.parseConst(s)
		if e != nil {
			return nil, e
		}
		return &Const{Dst: dst, Value: v}, nil
	case "load":
		v, e := s.ident("variable name")
		if e != nil {
			return nil, e
		}
		return &Load{Dst: dst, Var: v}, nil
	case "addr":
		v, e := s.ident("variable name")
		if e != nil {
			return nil, e
		}
		return &AddrOf{Dst: dst, Var: v}, nil
	case "load_ref":
		ref, e := s.temp()
		if e != nil {
			return nil, e
		}
		return &LoadRef{Dst: dst, Ref: ref}, nil
	case "call":
		return p.parseCall(s, dst)
	case "make_array":
		elems := []int{}
		for !s.done() {
			if len(elems) > 0 {
				if e := s.expect(", "); e != nil {
					return nil, e
				}
			}
			t, e := s.temp()
			if e != nil {
				return nil, e
			}
			elems = append(elems, t)
		}
		return &MakeArray{Dst: dst, Elems: elems}, nil
	case "index":
		temps, e := s.temps(2)
		if e != nil {
			return nil, e
		}
		return &Index{Dst: dst, Array: temps[0], Idx: temps[1]}, nil
	case "index_unchecked":
		temps, e := s.temps(2)
		if e != nil {
			return nil, e
		}
		return &IndexUnchecked{Dst: dst, Array: temps[0], Idx: temps[1]}, nil
	case "make_struct":
		return p.parseMakeStruct(s, dst)
	case "make_enum":
		return p.parseMakeEnum(s, dst)
	case "get_field":
		base, e := s.temp()
		var field string
		if e == nil {
			e = s.expect(", ")
		}
		if e == nil {
			field, e = s.ident("field name")
		}
		if e != nil {
			return nil, e
		}
		return &GetField{Dst: dst, Base: base, Field: field}, nil
	case "enum_tag":
		base, e := s.temp()
		if e != nil {
			return nil, e
		}
		return &EnumTag{Dst: dst, Base: base}, nil
	case "enum_payload":
		base, e := s.temp()
		if e != nil {
			return nil, e
		}
		return &EnumPayload{Dst: dst, Base: base}, nil
	}

	// Operator tokens are pure punctuation. The parser admits any such
	// token; membership in the v0 operator set is a verifier check.
	if isOpToken(word) {
		left, e := s.temp()
		if e != nil {
			return nil, e
		}
		if s.eat(", ") {
			right, e := s.temp()
			if e != nil {
				return nil, e
			}
			return &Binary{Dst: dst, Op: word, Left: left, Right: right}, nil
		}
		return &Unary{Dst: dst, Op: word, X: left}, nil
	}
	return nil, s.fail("a recognized instruction", word)
}

func (p *parser) parseCall(s *scanner, dst int) (Instr, error) {
	target, err := s.ident("callee name")
	if err != nil {
		return nil, err
	}
	if err := s.expect("("); err != nil {
		return nil, err
	}
	var args []int
	for !s.eat(")") {
		if len(args) > 0 {
			if err := s.expect(", "); err != nil {
				return nil, err
			}
		}
		t, err := s.temp()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return &Call{Dst: dst, Target: target, Args: args}, nil
}

func (p *parser) parseMakeStruct(s *scanner, dst int) (Instr, error) {
	name, err := s.ident("struct name")
	if err != nil {
		return nil, err
	}
	if err := s.expect(" {"); err != nil {
		return nil, err
	}
	instr := &MakeStruct{Dst: dst, Name: name}
	for !s.eat("}") {
		if len(instr.Fields) > 0 {
			if err := s.expect(", "); err != nil {
				return nil, err
			}
		}
		field, err := s.ident("field name")
		if err != nil {
			return nil, err
		}
		if err := s.expect(": "); err != nil {
			return nil, err
		}
		src, err := s.temp()
		if err != nil {
			return nil, err
		}
		instr.Fields = append(instr.Fields, FieldInit{Name: field, Src: src})
	}
	return instr, nil
}

func (p *parser) parseMakeEnum(s *scanner, dst int) (Instr, error) {
	name, err := s.ident("enum name")
	if err != nil {
		return nil, err
	}
	if err := s.expect("::"); err != nil {
		return nil, err
	}
	variant, err := s.ident("variant name")
	if err != nil {
		return nil, err
	}
	if err := s.expect(", "); err != nil {
		return nil, err
	}
	tag, err := s.int64("enum tag")
	if err != nil {
		return nil, err
	}
	if err := s.expect(", "); err != nil {
		return nil, err
	}
	width, err := s.ident("tag width")
	if err != nil {
		return nil, err
	}
	if !value.ValidWidth(width) {
		return nil, s.fail("a tag width name", width)
	}
	instr := &MakeEnum{Dst: dst, Name: name, Variant: variant, Tag: tag, TagWidth: width, Payload: NoTemp}
	if s.eat(", ") {
		payload, err := s.temp()
		if err != nil {
			return nil, err
		}
		instr.Payload = payload
	}
	return instr, nil
}

// parseConst recognizes the literal constant forms: decimal int (with an
// optional width tag), true/false, a quoted string and unit. The debug-only
// printer annotations (&N, struct#N, enum#N, array#N) are not valid input.
func (p *parser) parseConst(s *scanner) (value.Value, error) {
	if s.peekByte('"') {
		str, err := s.quoted()
		if err != nil {
			return nil, err
		}
		return value.String{V: str}, nil
	}
	word, err := s.word("constant literal")
	if err != nil {
		return nil, err
	}
	switch word {
	case "true":
		return value.Bool{V: true}, nil
	case "false":
		return value.Bool{V: false}, nil
	case "unit":
		return value.Unit{}, nil
	}
	n, err2 := strconv.ParseInt(word, 10, 64)
	if err2 != nil {
		return nil, s.fail("a constant literal", word)
	}
	v := value.Int{V: n}
	if !s.done() {
		if e := s.expect(" "); e != nil {
			return nil, e
		}
		width, e := s.ident("width tag")
		if e != nil {
			return nil, e
		}
		if !value.ValidWidth(width) {
			return nil, s.fail("a width tag name", width)
		}
		v.Width = width
	}
	return v, nil
}

func isOpToken(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !strings.ContainsRune("+-*/%<>=!&|^~", r) {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !alpha && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// inferTempCount returns the smallest temp count covering every temporary
// referenced in the function body.
func inferTempCount(fn *Function) int {
	max := -1
	see := func(ts ...int) {
		for _, t := range ts {
			if t > max {
				max = t
			}
		}
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			switch i := instr.(type) {
			case *Const:
				see(i.Dst)
			case *Load:
				see(i.Dst)
			case *Store:
				see(i.Src)
			case *AddrOf:
				see(i.Dst)
			case *LoadRef:
				see(i.Dst, i.Ref)
			case *StoreRef:
				see(i.Ref, i.Src)
			case *Unary:
				see(i.Dst, i.X)
			case *Binary:
				see(i.Dst, i.Left, i.Right)
			case *Call:
				see(i.Args...)
				if i.Dst != NoTemp {
					see(i.Dst)
				}
			case *MakeArray:
				see(i.Dst)
				see(i.Elems...)
			case *Index:
				see(i.Dst, i.Array, i.Idx)
			case *IndexUnchecked:
				see(i.Dst, i.Array, i.Idx)
			case *SetIndex:
				see(i.Array, i.Idx, i.Src)
			case *SetIndexUnchecked:
				see(i.Array, i.Idx, i.Src)
			case *MakeStruct:
				see(i.Dst)
				for _, f := range i.Fields {
					see(f.Src)
				}
			case *GetField:
				see(i.Dst, i.Base)
			case *SetField:
				see(i.Base, i.Src)
			case *MakeEnum:
				see(i.Dst)
				if i.Payload != NoTemp {
					see(i.Payload)
				}
			case *EnumTag:
				see(i.Dst, i.Base)
			case *EnumPayload:
				see(i.Dst, i.Base)
			}
		}
		switch t := b.Term.(type) {
		case *Branch:
			see(t.Cond)
		case *Return:
			if t.HasValue {
				see(t.Src)
			}
		}
	}
	return max + 1
}
