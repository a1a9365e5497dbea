package ir

import (
	"strconv"
	"strings"
)

// scanner is a cursor over a single line of IR text. Columns in errors are
// 1-based byte offsets into the full line.
type scanner struct {
	p    *parser
	line string
	pos  int
}

func newScanner(p *parser, line string) *scanner {
	return &scanner{p: p, line: line}
}

func (s *scanner) skip(n int) { s.pos += n }

func (s *scanner) done() bool { return s.pos >= len(s.line) }

func (s *scanner) rest() string { return s.line[s.pos:] }

func (s *scanner) fail(want, got string) *ParseError {
	return s.p.errf(s.pos+1, want, got)
}

func (s *scanner) peekByte(c byte) bool {
	return !s.done() && s.line[s.pos] == c
}

func (s *scanner) eat(prefix string) bool {
	if strings.HasPrefix(s.rest(), prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

func (s *scanner) expect(prefix string) error {
	if !s.eat(prefix) {
		return s.fail(strconv.Quote(prefix), firstToken(s.rest()))
	}
	return nil
}

func (s *scanner) end(want string) error {
	if !s.done() {
		return s.fail(want, strconv.Quote(s.rest()))
	}
	return nil
}

// word reads a maximal run of non-space, non-parenthesis bytes.
func (s *scanner) word(want string) (string, error) {
	start := s.pos
	for !s.done() {
		c := s.line[s.pos]
		if c == ' ' || c == '(' {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return "", s.fail(want, firstToken(s.rest()))
	}
	w := s.line[start:s.pos]
	// The keyword separator space, when present, belongs to the word.
	if !s.done() && s.line[s.pos] == ' ' && isWordish(w) {
		s.pos++
	}
	return w, nil
}

func isWordish(w string) bool {
	return isIdent(w) || isOpToken(w)
}

// ident reads a well-formed identifier.
func (s *scanner) ident(want string) (string, error) {
	start := s.pos
	for !s.done() {
		c := s.line[s.pos]
		alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if !alpha && !(digit && s.pos > start) {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return "", s.fail(want, firstToken(s.rest()))
	}
	return s.line[start:s.pos], nil
}

// temp reads a temporary reference tN.
func (s *scanner) temp() (int, error) {
	start := s.pos
	if !s.eat("t") {
		return 0, s.fail("a temporary", firstToken(s.rest()))
	}
	digits := s.pos
	for !s.done() && s.line[s.pos] >= '0' && s.line[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == digits {
		s.pos = start
		return 0, s.fail("a temporary", firstToken(s.rest()))
	}
	n, err := strconv.Atoi(s.line[digits:s.pos])
	if err != nil {
		s.pos = start
		return 0, s.fail("a temporary", firstToken(s.rest()))
	}
	return n, nil
}

// temps reads exactly n comma-separated temporaries.
func (s *scanner) temps(n int) ([]int, error) {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := s.expect(", "); err != nil {
				return nil, err
			}
		}
		t, err := s.temp()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// int64 reads a decimal integer literal.
func (s *scanner) int64(want string) (int64, error) {
	start := s.pos
	if s.peekByte('-') {
		s.pos++
	}
	for !s.done() && s.line[s.pos] >= '0' && s.line[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.ParseInt(s.line[start:s.pos], 10, 64)
	if err != nil {
		s.pos = start
		return 0, s.fail(want, firstToken(s.rest()))
	}
	return n, nil
}

// tryAssign consumes a leading "tN = " and returns the destination.
func (s *scanner) tryAssign() (int, bool) {
	save := s.pos
	t, err := s.temp()
	if err != nil || !s.eat(" = ") {
		s.pos = save
		return 0, false
	}
	return t, true
}

// quoted reads a double-quoted string literal with the four legal escapes.
func (s *scanner) quoted() (string, error) {
	if !s.eat(`"`) {
		return "", s.fail("a string literal", firstToken(s.rest()))
	}
	var b strings.Builder
	for {
		if s.done() {
			return "", s.fail(`closing "`, "end of line")
		}
		c := s.line[s.pos]
		switch c {
		case '"':
			s.pos++
			return b.String(), nil
		case '\\':
			if s.pos+1 >= len(s.line) {
				return "", s.fail("an escape sequence", "end of line")
			}
			esc := s.line[s.pos+1]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return "", s.fail(`one of \n \t \r \" \\`, strconv.Quote(s.line[s.pos:s.pos+2]))
			}
			s.pos += 2
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
}

func firstToken(rest string) string {
	if rest == "" {
		return ""
	}
	if i := strings.IndexByte(rest, ' '); i > 0 {
		return strconv.Quote(rest[:i])
	}
	return strconv.Quote(rest)
}
