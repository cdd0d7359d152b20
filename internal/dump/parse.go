package dump

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is one parsed INSERT.
type Statement struct {
	Table   string
	Columns []string // empty when the dump omits the column list
	Rows    []Row
}

// SyntaxError reports where a dump fragment stopped making sense.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dump syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parse extracts every INSERT INTO ... VALUES statement of text, including
// the INSERT IGNORE and REPLACE forms mysqldump writes with --insert-ignore
// and --replace.
//
//	statement := ( INSERT [IGNORE] | REPLACE ) INTO ident [ "(" ident {"," ident} ")" ] VALUES tuple {"," tuple} [";"]
//	tuple     := "(" [ literal {"," literal} ] ")"
//	literal   := NULL | quoted | binary | number | bare
//	binary    := "_binary" quoted | b'bits' | x'HEX' | 0xHEX
//
// Text outside INSERT statements (comments, LOCK TABLES, SET ...) is ignored.
func Parse(text string) ([]Statement, error) {
	var stmts []Statement
	p := &parser{src: text}
	for {
		at, n := nextStatement(text, p.pos)
		if at < 0 {
			return stmts, nil
		}
		p.pos = at + n
		stmt, err := p.statement()
		if err != nil {
			return stmts, err
		}
		stmts = append(stmts, stmt)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) statement() (Statement, error) {
	var stmt Statement

	table, err := p.ident()
	if err != nil {
		return stmt, err
	}
	stmt.Table = table

	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		for {
			col, err := p.ident()
			if err != nil {
				return stmt, err
			}
			stmt.Columns = append(stmt.Columns, col)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			if err := p.expect(')'); err != nil {
				return stmt, err
			}
			break
		}
	}

	p.skipSpace()
	if !hasPrefixFold(p.src[p.pos:], "VALUES") {
		return stmt, p.errorf("expected VALUES")
	}
	p.pos += len("VALUES")

	for {
		row, err := p.tuple()
		if err != nil {
			return stmt, err
		}
		stmt.Rows = append(stmt.Rows, row)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ';':
			p.pos++
			return stmt, nil
		case 0:
			return stmt, nil
		default:
			if hasPrefixFold(p.src[p.pos:], "ON DUPLICATE") {
				return stmt, p.skipStatement()
			}
			return stmt, p.errorf("unexpected %q after tuple", p.peek())
		}
	}
}

// skipStatement moves past the terminating semicolon, honouring quotes.
func (p *parser) skipStatement() error {
	for !p.eof() {
		switch p.peek() {
		case '\'', '"':
			if _, err := p.quoted(); err != nil {
				return err
			}
		case ';':
			p.pos++
			return nil
		default:
			p.pos++
		}
	}
	return nil
}

func (p *parser) ident() (string, error) {
	name, err := p.identPart()
	if err != nil {
		return "", err
	}
	// schema-qualified: keep the table part
	for p.peek() == '.' {
		p.pos++
		if name, err = p.identPart(); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (p *parser) identPart() (string, error) {
	p.skipSpace()
	if q := p.peek(); q == '`' || q == '"' {
		p.pos++
		var b strings.Builder
		for {
			if p.eof() {
				return "", p.errorf("unterminated identifier")
			}
			c := p.src[p.pos]
			p.pos++
			if c == q {
				if p.peek() == q {
					b.WriteByte(q)
					p.pos++
					continue
				}
				return b.String(), nil
			}
			b.WriteByte(c)
		}
	}

	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return "", p.errorf("expected identifier")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) tuple() (Row, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var row Row
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return row, nil
	}
	for {
		v, err := p.literal()
		if err != nil {
			return nil, err
		}
		row = append(row, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return row, nil
		case 0:
			return nil, p.errorf("unterminated tuple")
		default:
			return nil, p.errorf("unexpected %q in tuple", p.peek())
		}
	}
}

func (p *parser) literal() (Value, error) {
	p.skipSpace()
	if p.eof() {
		return Value{}, p.errorf("expected literal, got end of input")
	}
	rest := p.src[p.pos:]

	switch {
	case rest[0] == '\'' || rest[0] == '"':
		s, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil

	case hasPrefixFold(rest, "_binary"):
		p.pos += len("_binary")
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			return Value{}, p.errorf("expected quoted payload after _binary")
		}
		s, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		// bit(1) columns dump as _binary '\0' (false) or a raw 0x01 byte (true).
		return Value{Kind: Bool, B: !strings.ContainsRune(s, 0), S: s}, nil

	case rest[0] == '_' && introducerLen(rest) > 0:
		// charset introducer such as _utf8mb4'...'
		p.pos += introducerLen(rest)
		p.skipSpace()
		s, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil

	case (rest[0] == 'b' || rest[0] == 'B') && len(rest) > 1 && rest[1] == '\'':
		p.pos++
		bits, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		if strings.Trim(bits, "01") != "" {
			return Value{}, p.errorf("invalid bit literal %q", bits)
		}
		return Value{Kind: Bool, B: strings.Contains(bits, "1"), S: bits}, nil

	case (rest[0] == 'x' || rest[0] == 'X') && len(rest) > 1 && rest[1] == '\'':
		p.pos++
		hex, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		if len(hex)%2 != 0 || strings.IndexFunc(hex, func(r rune) bool { return r > 0x7f || !isHex(byte(r)) }) >= 0 {
			return Value{}, p.errorf("invalid hex literal %q", hex)
		}
		return Value{Kind: Bool, B: strings.Trim(hex, "0") != "", S: hex}, nil

	case len(rest) > 2 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') && isHex(rest[2]):
		start := p.pos
		p.pos += 2
		nonZero := false
		for !p.eof() && isHex(p.src[p.pos]) {
			if p.src[p.pos] != '0' {
				nonZero = true
			}
			p.pos++
		}
		return Value{Kind: Bool, B: nonZero, S: p.src[start:p.pos]}, nil
	}

	tok := p.bareToken()
	if tok == "" {
		return Value{}, p.errorf("expected literal, got %q", p.peek())
	}
	if strings.EqualFold(tok, "NULL") {
		return NullValue(), nil
	}
	if isNumeric(tok) {
		n, err := strconv.ParseFloat(tok, 64)
		if err == nil {
			return Value{Kind: Number, N: n, S: tok}, nil
		}
	}
	return RawValue(tok), nil
}

func (p *parser) bareToken() string {
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.src[p.pos]
		if c == '(' {
			depth++
		} else if c == ')' {
			if depth == 0 {
				break
			}
			depth--
		} else if depth == 0 && (c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\'' || c == '"') {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// quoted reads a MySQL string literal starting at the opening quote.
func (p *parser) quoted() (string, error) {
	q := p.src[p.pos]
	start := p.pos
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return "", p.errorf("unterminated string literal")
		}
		c := p.src[p.pos]
		p.pos++
		switch {
		case c == '\\':
			if p.eof() {
				p.pos = start
				return "", p.errorf("unterminated string literal")
			}
			e := p.src[p.pos]
			p.pos++
			b.WriteString(unescape(e))
		case c == q:
			if p.peek() == q {
				b.WriteByte(q)
				p.pos++
				continue
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
}

func unescape(e byte) string {
	switch e {
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'Z':
		return "\x1a"
	case '%', '_':
		return "\\" + string(e)
	default:
		return string(e)
	}
}

func introducerLen(s string) int {
	i := 1
	for i < len(s) && (isIdentByte(s[i])) {
		i++
	}
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if i == 1 || j >= len(s) || (s[j] != '\'' && s[j] != '"') {
		return 0
	}
	return i
}

func isNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

var statementHeads = []string{"INSERT INTO", "INSERT IGNORE INTO", "REPLACE INTO"}

// nextStatement finds the earliest statement head at or after from and
// returns its offset and length.
func nextStatement(s string, from int) (at, n int) {
	at = -1
	for _, head := range statementHeads {
		i := indexFold(s, head, from)
		if i >= 0 && (at < 0 || i < at) {
			at, n = i, len(head)
		}
	}
	return at, n
}

// indexFold is an ASCII case-insensitive strings.Index starting at from.
func indexFold(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if hasPrefixFold(s[i:], sub) {
			return i
		}
	}
	return -1
}
