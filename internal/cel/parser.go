package cel

import (
	"encoding/json"
	"strconv"
)

// Expression is a parsed expression together with its source text. It is
// immutable after construction and safe for concurrent evaluation.
type Expression struct {
	source string
	expr   Expr
}

// Parse parses expression source text.
func Parse(source string) (*Expression, error) {
	p := &parser{lex: newLexer(source), src: source}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokEOF {
		return nil, p.errorf("unexpected trailing input")
	}
	return &Expression{source: source, expr: expr}, nil
}

// MustParse parses source and panics on error. Intended for tests and
// static expressions.
func MustParse(source string) *Expression {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the original source text.
func (e *Expression) Source() string { return e.source }

// MarshalJSON serializes the expression as its source string, so parsed
// templates round-trip losslessly through storage.
func (e *Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.source)
}

// UnmarshalJSON re-parses an expression from its source string.
func (e *Expression) UnmarshalJSON(data []byte) error {
	var source string
	if err := json.Unmarshal(data, &source); err != nil {
		return err
	}
	parsed, err := Parse(source)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

type parser struct {
	lex *lexer
	src string
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) errorf(msg string) error {
	return &ParseError{Source: p.src, Pos: p.cur.pos, Msg: msg}
}

func (p *parser) isOp(text string) bool {
	return p.cur.typ == tokOp && p.cur.text == text
}

func (p *parser) expectOp(text string) error {
	if !p.isOp(text) {
		return p.errorf("expected " + strconv.Quote(text))
	}
	return p.advance()
}

// parseTernary: or ("?" ternary ":" ternary)?
func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isOp("?") {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return TernaryExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) relationOp() (RelationOp, bool) {
	if p.cur.typ == tokIdent && p.cur.text == "in" {
		return OpIn, true
	}
	if p.cur.typ != tokOp {
		return 0, false
	}
	switch p.cur.text {
	case "<":
		return OpLess, true
	case "<=":
		return OpLessEq, true
	case ">":
		return OpGreater, true
	case ">=":
		return OpGreaterEq, true
	case "==":
		return OpEqual, true
	case "!=":
		return OpNotEqual, true
	}
	return 0, false
}

func (p *parser) parseRelation() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.relationOp()
		if !ok {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = RelationExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := OpAdd
		if p.cur.text == "-" {
			op = OpSubtract
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ArithmeticExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		var op ArithmeticOp
		switch p.cur.text {
		case "*":
			op = OpMultiply
		case "/":
			op = OpDivide
		case "%":
			op = OpModulus
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ArithmeticExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isOp("!") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		op := OpNot
		if p.isOp("!") {
			op = OpDoubleNot
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, Operand: operand}, nil
	}
	if p.isOp("-") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		op := OpMinus
		if p.isOp("-") {
			op = OpDoubleMinus
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, Operand: operand}, nil
	}
	return p.parseMember()
}

// parseMember: primary ("." ident | "(" args ")" | "[" expr "]")*
func (p *parser) parseMember() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.typ != tokIdent {
				return nil, p.errorf("expected attribute name after '.'")
			}
			expr = MemberExpr{Target: expr, Member: AttributeMember{Name: p.cur.text}}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.isOp("("):
			args, err := p.parseExprList(")")
			if err != nil {
				return nil, err
			}
			expr = MemberExpr{Target: expr, Member: CallMember{Args: args}}
		case p.isOp("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			expr = MemberExpr{Target: expr, Member: IndexMember{Index: index}}
		default:
			return expr, nil
		}
	}
}

// parseExprList consumes the opening delimiter already current, then a
// comma-separated expression list up to closer.
func (p *parser) parseExprList(closer string) ([]Expr, error) {
	if err := p.advance(); err != nil { // consume opener
		return nil, err
	}
	var elems []Expr
	for !p.isOp(closer) {
		if len(elems) > 0 {
			if err := p.expectOp(","); err != nil {
				return nil, err
			}
			// Trailing comma before closer.
			if p.isOp(closer) {
				break
			}
		}
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if err := p.advance(); err != nil { // consume closer
		return nil, err
	}
	return elems, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.typ {
	case tokInt:
		i, err := strconv.ParseInt(p.cur.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: Int(i)}, nil
	case tokUInt:
		u, err := strconv.ParseUint(p.cur.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid unsigned integer literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: UInt(u)}, nil
	case tokDouble:
		d, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			return nil, p.errorf("invalid floating point literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: Double(d)}, nil
	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: String(s)}, nil
	case tokBytes:
		b := []byte(p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return LiteralExpr{Value: Bytes(b)}, nil
	case tokIdent:
		name := p.cur.text
		switch name {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: Bool(true)}, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: Bool(false)}, nil
		case "null":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return LiteralExpr{Value: Null{}}, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isOp("{") {
			return p.parseStruct(name)
		}
		return IdentExpr{Name: name}, nil
	case tokOp:
		switch p.cur.text {
		case "(":
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return expr, nil
		case "[":
			elems, err := p.parseExprList("]")
			if err != nil {
				return nil, err
			}
			return ListExpr{Elems: elems}, nil
		case "{":
			return p.parseMap()
		}
	}
	return nil, p.errorf("expected expression")
}

func (p *parser) parseMap() (Expr, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	var entries []MapEntry
	for !p.isOp("}") {
		if len(entries) > 0 {
			if err := p.expectOp(","); err != nil {
				return nil, err
			}
			if p.isOp("}") {
				break
			}
		}
		key, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		value, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: value})
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	return MapExpr{Entries: entries}, nil
}

func (p *parser) parseStruct(typeName string) (Expr, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	var fields []StructField
	for !p.isOp("}") {
		if len(fields) > 0 {
			if err := p.expectOp(","); err != nil {
				return nil, err
			}
			if p.isOp("}") {
				break
			}
		}
		if p.cur.typ != tokIdent {
			return nil, p.errorf("expected field name")
		}
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		value, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		fields = append(fields, StructField{Name: name, Value: value})
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	return StructExpr{TypeName: typeName, Fields: fields}, nil
}
