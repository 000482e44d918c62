package dap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/vitte/lang/diag"
)

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueStr
	ValueArray
	ValueMap
)

// Value is the small value type produced and consumed by the expression
// evaluator: conditions, logpoint interpolation, and EvalEnv results all
// exchange Value, never a richer runtime value.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Array []Value
	Map   map[string]Value
}

func NullValue() Value                  { return Value{Kind: ValueNull} }
func BoolValue(b bool) Value            { return Value{Kind: ValueBool, Bool: b} }
func IntValue(i int64) Value            { return Value{Kind: ValueInt, Int: i} }
func FloatValue(f float64) Value        { return Value{Kind: ValueFloat, Float: f} }
func StrValue(s string) Value           { return Value{Kind: ValueStr, Str: s} }
func ArrayValue(v []Value) Value        { return Value{Kind: ValueArray, Array: v} }
func MapValue(m map[string]Value) Value { return Value{Kind: ValueMap, Map: m} }

// TypeName names v's variant for error messages.
func (v Value) TypeName() string {
	switch v.Kind {
	case ValueNull:
		return "null"
	case ValueBool:
		return "bool"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueStr:
		return "string"
	case ValueArray:
		return "array"
	case ValueMap:
		return "map"
	default:
		return "unknown"
	}
}

// Truthy reports v's boolean coercion: Null, false, numeric zero, and empty
// string/array/map are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValueNull:
		return false
	case ValueBool:
		return v.Bool
	case ValueInt:
		return v.Int != 0
	case ValueFloat:
		return v.Float != 0
	case ValueStr:
		return v.Str != ""
	case ValueArray:
		return len(v.Array) > 0
	case ValueMap:
		return len(v.Map) > 0
	default:
		return false
	}
}

// Display renders v's canonical display form, used for string concatenation
// and logpoint interpolation: decimal ints, decimal floats without trailing
// zeros when integral, "true"/"false", "null", and bracketed/braced
// renderings for arrays and maps.
func (v Value) Display() string {
	switch v.Kind {
	case ValueNull:
		return "null"
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		if v.Float == float64(int64(v.Float)) {
			return strconv.FormatInt(int64(v.Float), 10)
		}
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueStr:
		return v.Str
	case ValueArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueMap:
		parts := make([]string, 0, len(v.Map))
		for k, e := range v.Map {
			parts = append(parts, k+": "+e.Display())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// EvalEnv supplies variable, field, index, and call semantics to the
// evaluator. MapEnv provides the usual map-field-lookup and
// array/map-indexing behavior; Call is only meaningful with a concrete
// debugger attached.
type EvalEnv interface {
	GetVar(name string) (Value, bool)
	GetField(base Value, field string) (Value, bool)
	Index(base, idx Value) (Value, bool)
	Call(name string, args []Value) (Value, error)
}

// MapEnv is a minimal EvalEnv backed by a plain map, used by tests and by
// logpoint formatting when no richer environment is available.
type MapEnv struct {
	Vars   map[string]Value
	CallFn func(name string, args []Value) (Value, error)
}

func (e MapEnv) GetVar(name string) (Value, bool) {
	v, ok := e.Vars[name]
	return v, ok
}

func (e MapEnv) GetField(base Value, field string) (Value, bool) {
	if base.Kind != ValueMap {
		return Value{}, false
	}
	v, ok := base.Map[field]
	return v, ok
}

func (e MapEnv) Index(base, idx Value) (Value, bool) {
	switch {
	case base.Kind == ValueArray && idx.Kind == ValueInt && idx.Int >= 0 && int(idx.Int) < len(base.Array):
		return base.Array[idx.Int], true
	case base.Kind == ValueMap && idx.Kind == ValueStr:
		v, ok := base.Map[idx.Str]
		return v, ok
	default:
		return Value{}, false
	}
}

func (e MapEnv) Call(name string, args []Value) (Value, error) {
	if e.CallFn != nil {
		return e.CallFn(name, args)
	}
	return Value{}, &diag.UnsupportedError{Feature: "call: " + name}
}

// tokKind enumerates the evaluator's lexer tokens.
type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokStr
	tokInt
	tokFloat
	tokTrue
	tokFalse
	tokNull
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokDot
	tokComma
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokBang
	tokEqEq
	tokNotEq
	tokLt
	tokLe
	tokGt
	tokGe
	tokAndAnd
	tokOrOr
)

type token struct {
	kind tokKind
	str  string
	i    int64
	f    float64
}

type lexer struct {
	s []byte
	i int
}

func newLexer(src string) *lexer { return &lexer{s: []byte(src)} }

func (l *lexer) eof() bool  { return l.i >= len(l.s) }
func (l *lexer) peek() byte { return l.s[l.i] }
func (l *lexer) peek2() (byte, bool) {
	if l.i+1 < len(l.s) {
		return l.s[l.i+1], true
	}
	return 0, false
}

func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || (c >= '0' && c <= '9') }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }

func (l *lexer) skipWS() {
	for !l.eof() {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.i++
		case c == '/' && func() bool { n, ok := l.peek2(); return ok && n == '/' }():
			l.i += 2
			for !l.eof() && l.peek() != '\n' {
				l.i++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipWS()
	if l.eof() {
		return token{kind: tokEOF}, nil
	}
	c := l.peek()

	if isIdentStart(c) {
		start := l.i
		l.i++
		for !l.eof() && isIdentPart(l.peek()) {
			l.i++
		}
		s := string(l.s[start:l.i])
		switch s {
		case "true":
			return token{kind: tokTrue}, nil
		case "false":
			return token{kind: tokFalse}, nil
		case "null":
			return token{kind: tokNull}, nil
		default:
			return token{kind: tokIdent, str: s}, nil
		}
	}

	if isDigit(c) {
		return l.lexNumber()
	}
	if c == '"' {
		return l.lexString()
	}
	if tok, ok := l.tryTwoCharOp(); ok {
		return tok, nil
	}

	l.i++
	switch c {
	case '(':
		return token{kind: tokLParen}, nil
	case ')':
		return token{kind: tokRParen}, nil
	case '[':
		return token{kind: tokLBracket}, nil
	case ']':
		return token{kind: tokRBracket}, nil
	case '.':
		return token{kind: tokDot}, nil
	case ',':
		return token{kind: tokComma}, nil
	case '+':
		return token{kind: tokPlus}, nil
	case '-':
		return token{kind: tokMinus}, nil
	case '*':
		return token{kind: tokStar}, nil
	case '/':
		return token{kind: tokSlash}, nil
	case '%':
		return token{kind: tokPercent}, nil
	case '!':
		return token{kind: tokBang}, nil
	case '<':
		return token{kind: tokLt}, nil
	case '>':
		return token{kind: tokGt}, nil
	default:
		return token{}, &diag.UnsupportedError{Feature: fmt.Sprintf("unexpected character: %c", c)}
	}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.i
	sawDot := false
	for !l.eof() {
		c := l.peek()
		if isDigit(c) {
			l.i++
			continue
		}
		if c == '.' && !sawDot {
			sawDot = true
			l.i++
			continue
		}
		break
	}
	s := string(l.s[start:l.i])
	if sawDot {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return token{}, &diag.FormatError{Reason: "invalid float: " + s}
		}
		return token{kind: tokFloat, f: f}, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return token{}, &diag.FormatError{Reason: "invalid int: " + s}
	}
	return token{kind: tokInt, i: i}, nil
}

func (l *lexer) lexString() (token, error) {
	l.i++ // opening quote
	var out strings.Builder
	for !l.eof() {
		c := l.peek()
		l.i++
		switch c {
		case '"':
			return token{kind: tokStr, str: out.String()}, nil
		case '\\':
			if l.eof() {
				return token{}, &diag.FormatError{Reason: "unterminated escape"}
			}
			e := l.peek()
			l.i++
			switch e {
			case '"':
				out.WriteByte('"')
			case '\\':
				out.WriteByte('\\')
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case '0':
				out.WriteByte(0)
			default:
				return token{}, &diag.FormatError{Reason: fmt.Sprintf("invalid escape: \\%c", e)}
			}
		default:
			out.WriteByte(c)
		}
	}
	return token{}, &diag.FormatError{Reason: "unterminated string"}
}

func (l *lexer) tryTwoCharOp() (token, bool) {
	n, ok := l.peek2()
	if !ok {
		return token{}, false
	}
	var kind tokKind
	switch [2]byte{l.peek(), n} {
	case [2]byte{'&', '&'}:
		kind = tokAndAnd
	case [2]byte{'|', '|'}:
		kind = tokOrOr
	case [2]byte{'=', '='}:
		kind = tokEqEq
	case [2]byte{'!', '='}:
		kind = tokNotEq
	case [2]byte{'<', '='}:
		kind = tokLe
	case [2]byte{'>', '='}:
		kind = tokGe
	default:
		return token{}, false
	}
	l.i += 2
	return token{kind: kind}, true
}

// expr is the evaluator's internal AST. It's evaluated directly (tree-walk),
// never compiled to bytecode: this evaluator is a read-only debugger
// facility, unrelated to the compiler backend's Chunk output.
type expr interface{ isExpr() }

type litExpr struct{ v Value }
type varExpr struct{ name string }
type unaryExpr struct {
	op tokKind
	e  expr
}
type binaryExpr struct {
	op   tokKind
	l, r expr
}
type callExpr struct {
	callee expr
	args   []expr
}
type getExpr struct {
	base  expr
	field string
}
type indexExpr struct{ base, idx expr }

func (litExpr) isExpr()    {}
func (varExpr) isExpr()    {}
func (unaryExpr) isExpr()  {}
func (binaryExpr) isExpr() {}
func (callExpr) isExpr()   {}
func (getExpr) isExpr()    {}
func (indexExpr) isExpr()  {}

type parser struct {
	lx   *lexer
	look token
}

func newParser(src string) (*parser, error) {
	lx := newLexer(src)
	look, err := lx.next()
	if err != nil {
		return nil, err
	}
	return &parser{lx: lx, look: look}, nil
}

func (p *parser) bump() error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.look = tok
	return nil
}

func (p *parser) expect(k tokKind) error {
	if p.look.kind == k {
		return p.bump()
	}
	return &diag.FormatError{Reason: "unexpected token in expression"}
}

func (p *parser) parseExpr() (expr, error) { return p.parseOr() }

func (p *parser) parseOr() (expr, error) {
	e, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokOrOr {
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: tokOrOr, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseAnd() (expr, error) {
	e, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokAndAnd {
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: tokAndAnd, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseEquality() (expr, error) {
	e, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokEqEq || p.look.kind == tokNotEq {
		op := p.look.kind
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: op, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseComparison() (expr, error) {
	e, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokLt || p.look.kind == tokLe || p.look.kind == tokGt || p.look.kind == tokGe {
		op := p.look.kind
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: op, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseAdd() (expr, error) {
	e, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokPlus || p.look.kind == tokMinus {
		op := p.look.kind
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: op, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseMul() (expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.look.kind == tokStar || p.look.kind == tokSlash || p.look.kind == tokPercent {
		op := p.look.kind
		if err := p.bump(); err != nil {
			return nil, err
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e = binaryExpr{op: op, l: e, r: r}
	}
	return e, nil
}

func (p *parser) parseUnary() (expr, error) {
	switch p.look.kind {
	case tokBang, tokPlus, tokMinus:
		op := p.look.kind
		if err := p.bump(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: op, e: e}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.look.kind {
		case tokLParen:
			if err := p.bump(); err != nil {
				return nil, err
			}
			var args []expr
			if p.look.kind != tokRParen {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.look.kind == tokComma {
						if err := p.bump(); err != nil {
							return nil, err
						}
						continue
					}
					break
				}
			}
			if err := p.expect(tokRParen); err != nil {
				return nil, err
			}
			e = callExpr{callee: e, args: args}
		case tokDot:
			if err := p.bump(); err != nil {
				return nil, err
			}
			if p.look.kind != tokIdent {
				return nil, &diag.FormatError{Reason: "expected identifier after '.'"}
			}
			field := p.look.str
			if err := p.bump(); err != nil {
				return nil, err
			}
			e = getExpr{base: e, field: field}
		case tokLBracket:
			if err := p.bump(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			e = indexExpr{base: e, idx: idx}
		default:
			return e, nil
		}
	}
}

func (p *parser) parsePrimary() (expr, error) {
	switch p.look.kind {
	case tokTrue:
		err := p.bump()
		return litExpr{v: BoolValue(true)}, err
	case tokFalse:
		err := p.bump()
		return litExpr{v: BoolValue(false)}, err
	case tokNull:
		err := p.bump()
		return litExpr{v: NullValue()}, err
	case tokInt:
		v := p.look.i
		err := p.bump()
		return litExpr{v: IntValue(v)}, err
	case tokFloat:
		v := p.look.f
		err := p.bump()
		return litExpr{v: FloatValue(v)}, err
	case tokStr:
		v := p.look.str
		err := p.bump()
		return litExpr{v: StrValue(v)}, err
	case tokIdent:
		name := p.look.str
		err := p.bump()
		return varExpr{name: name}, err
	case tokLParen:
		if err := p.bump(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &diag.FormatError{Reason: "unexpected token in expression"}
	}
}

// Eval parses and evaluates src against env.
func Eval(src string, env EvalEnv) (Value, error) {
	p, err := newParser(src)
	if err != nil {
		return Value{}, err
	}
	ast, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	return evalNode(ast, env)
}

// EvalBool evaluates src and returns its truthy coercion, used for
// breakpoint conditions.
func EvalBool(src string, env EvalEnv) (bool, error) {
	v, err := Eval(src, env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func evalNode(n expr, env EvalEnv) (Value, error) {
	switch e := n.(type) {
	case litExpr:
		return e.v, nil
	case varExpr:
		v, ok := env.GetVar(e.name)
		if !ok {
			return Value{}, &diag.UnboundVarError{Name: e.name}
		}
		return v, nil
	case unaryExpr:
		v, err := evalNode(e.e, env)
		if err != nil {
			return Value{}, err
		}
		switch e.op {
		case tokBang:
			return BoolValue(!v.Truthy()), nil
		case tokMinus:
			switch v.Kind {
			case ValueInt:
				return IntValue(-v.Int), nil
			case ValueFloat:
				return FloatValue(-v.Float), nil
			default:
				return Value{}, &diag.TypeMismatchError{Details: "expected number, found " + v.TypeName()}
			}
		case tokPlus:
			if v.Kind != ValueInt && v.Kind != ValueFloat {
				return Value{}, &diag.TypeMismatchError{Details: "expected number, found " + v.TypeName()}
			}
			return v, nil
		}
		return Value{}, &diag.UnsupportedError{Feature: "unary operator"}
	case binaryExpr:
		return evalBinary(e, env)
	case callExpr:
		name, ok := e.callee.(varExpr)
		if !ok {
			return Value{}, &diag.UnsupportedError{Feature: "call on non-identifier callee"}
		}
		args := make([]Value, len(e.args))
		for i, a := range e.args {
			v, err := evalNode(a, env)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return env.Call(name.name, args)
	case getExpr:
		base, err := evalNode(e.base, env)
		if err != nil {
			return Value{}, err
		}
		v, ok := env.GetField(base, e.field)
		if !ok {
			return Value{}, &diag.TypeMismatchError{Details: fmt.Sprintf("no field %s.%s", base.TypeName(), e.field)}
		}
		return v, nil
	case indexExpr:
		base, err := evalNode(e.base, env)
		if err != nil {
			return Value{}, err
		}
		idx, err := evalNode(e.idx, env)
		if err != nil {
			return Value{}, err
		}
		v, ok := env.Index(base, idx)
		if !ok {
			return Value{}, diag.ErrBadIndex
		}
		return v, nil
	default:
		return Value{}, &diag.UnsupportedError{Feature: "expression node"}
	}
}

func evalBinary(e binaryExpr, env EvalEnv) (Value, error) {
	if e.op == tokAndAnd {
		l, err := evalNode(e.l, env)
		if err != nil {
			return Value{}, err
		}
		if !l.Truthy() {
			return BoolValue(false), nil
		}
		r, err := evalNode(e.r, env)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Truthy()), nil
	}
	if e.op == tokOrOr {
		l, err := evalNode(e.l, env)
		if err != nil {
			return Value{}, err
		}
		if l.Truthy() {
			return BoolValue(true), nil
		}
		r, err := evalNode(e.r, env)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Truthy()), nil
	}

	l, err := evalNode(e.l, env)
	if err != nil {
		return Value{}, err
	}
	r, err := evalNode(e.r, env)
	if err != nil {
		return Value{}, err
	}

	switch e.op {
	case tokPlus:
		return numBinary(l, r, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }, true)
	case tokMinus:
		return numBinary(l, r, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }, false)
	case tokStar:
		return numBinary(l, r, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }, false)
	case tokSlash:
		return numBinary(l, r, func(a, b int64) int64 { return a / b }, func(a, b float64) float64 { return a / b }, false)
	case tokPercent:
		return numBinary(l, r, func(a, b int64) int64 { return a % b }, floatMod, false)
	case tokEqEq:
		return BoolValue(eqValue(l, r)), nil
	case tokNotEq:
		return BoolValue(!eqValue(l, r)), nil
	case tokLt:
		ok, err := cmpValue(l, r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok < 0), nil
	case tokLe:
		ok, err := cmpValue(l, r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok <= 0), nil
	case tokGt:
		ok, err := cmpValue(l, r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok > 0), nil
	case tokGe:
		ok, err := cmpValue(l, r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(ok >= 0), nil
	default:
		return Value{}, &diag.UnsupportedError{Feature: "binary operator"}
	}
}

func floatMod(a, b float64) float64 {
	return a - b*float64(int64(a/b))
}

// numBinary implements the promote-int-to-float and string-concatenation
// semantics shared by arithmetic operators. allowStrings is true only for
// '+', the sole operator defined on strings (concatenation, with a
// canonical-display coercion when only one side is a string).
func numBinary(l, r Value, iop func(int64, int64) int64, fop func(float64, float64) float64, allowStrings bool) (Value, error) {
	switch {
	case l.Kind == ValueInt && r.Kind == ValueInt:
		return IntValue(iop(l.Int, r.Int)), nil
	case l.Kind == ValueFloat && r.Kind == ValueFloat:
		return FloatValue(fop(l.Float, r.Float)), nil
	case l.Kind == ValueInt && r.Kind == ValueFloat:
		return FloatValue(fop(float64(l.Int), r.Float)), nil
	case l.Kind == ValueFloat && r.Kind == ValueInt:
		return FloatValue(fop(l.Float, float64(r.Int))), nil
	case allowStrings && l.Kind == ValueStr && r.Kind == ValueStr:
		return StrValue(l.Str + r.Str), nil
	case allowStrings && l.Kind == ValueStr:
		return StrValue(l.Str + r.Display()), nil
	case allowStrings && r.Kind == ValueStr:
		return StrValue(l.Display() + r.Str), nil
	default:
		return Value{}, &diag.TypeMismatchError{Details: fmt.Sprintf("invalid numeric operation between %s and %s", l.TypeName(), r.TypeName())}
	}
}

func eqValue(a, b Value) bool {
	switch {
	case a.Kind == ValueBool && b.Kind == ValueBool:
		return a.Bool == b.Bool
	case a.Kind == ValueInt && b.Kind == ValueInt:
		return a.Int == b.Int
	case a.Kind == ValueFloat && b.Kind == ValueFloat:
		return a.Float == b.Float
	case a.Kind == ValueInt && b.Kind == ValueFloat:
		return float64(a.Int) == b.Float
	case a.Kind == ValueFloat && b.Kind == ValueInt:
		return a.Float == float64(b.Int)
	case a.Kind == ValueStr && b.Kind == ValueStr:
		return a.Str == b.Str
	case a.Kind == ValueNull && b.Kind == ValueNull:
		return true
	default:
		return false // arrays/maps: no deep equality here
	}
}

// cmpValue returns -1/0/1 the way a strings.Compare-style function would.
// NaN comparisons are an error, matching the "comparison requires same
// category" rule; mixed array/map/bool comparisons are likewise errors.
func cmpValue(a, b Value) (int, error) {
	switch {
	case a.Kind == ValueInt && b.Kind == ValueInt:
		return cmpInt64(a.Int, b.Int), nil
	case a.Kind == ValueStr && b.Kind == ValueStr:
		return strings.Compare(a.Str, b.Str), nil
	case isNumeric(a) && isNumeric(b):
		x, y := toFloat(a), toFloat(b)
		if x != x || y != y { // NaN
			return 0, diag.ErrNaNCompare
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, &diag.TypeMismatchError{Details: fmt.Sprintf("comparison not supported between %s and %s", a.TypeName(), b.TypeName())}
	}
}

func isNumeric(v Value) bool { return v.Kind == ValueInt || v.Kind == ValueFloat }

func toFloat(v Value) float64 {
	if v.Kind == ValueInt {
		return float64(v.Int)
	}
	return v.Float
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FormatLogMessage replaces every "{expr}" in template with the display
// form of expr evaluated against env, honoring the "{{" -> "{" and "}}" ->
// "}" escapes. An unbalanced brace is an error.
func FormatLogMessage(template string, env EvalEnv) (string, error) {
	var out strings.Builder
	r := []rune(template)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case c == '{':
			if i+1 < len(r) && r[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}
			j := i + 1
			for j < len(r) && r[j] != '}' {
				j++
			}
			if j >= len(r) {
				return "", &diag.FormatError{Reason: "missing closing brace in interpolation"}
			}
			exprSrc := strings.TrimSpace(string(r[i+1 : j]))
			v, err := Eval(exprSrc, env)
			if err != nil {
				return "", err
			}
			out.WriteString(v.Display())
			i = j + 1
		case c == '}':
			if i+1 < len(r) && r[i+1] == '}' {
				out.WriteByte('}')
				i += 2
				continue
			}
			return "", &diag.FormatError{Reason: "unmatched closing brace"}
		default:
			out.WriteRune(c)
			i++
		}
	}
	return out.String(), nil
}
