package lang

import (
	"fmt"
	"strconv"
	"strings"
)

type ParseErrorKind string

const (
	MalformedDispatch ParseErrorKind = "malformed-dispatch"
	UnterminatedBlock ParseErrorKind = "unterminated-block"
)

// ParseError means the source cannot be modeled at all. Anything milder
// (unknown primitives, odd nesting) degrades instead of failing.
type ParseError struct {
	Kind ParseErrorKind
	Msg  string
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse: %s at line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse: %s: %s", e.Kind, e.Msg)
}

// Options extends the primitive table without recompiling the parser.
type Options struct {
	AuthPrimitives []string // extra identifiers treated as authorization checks
}

func Parse(source string) (*ContractUnit, error) {
	return ParseWithOptions(source, Options{})
}

// ParseWithOptions turns contract source into a ContractUnit. It fails only
// when no entry function is recognizable or braces are unbalanced.
func ParseWithOptions(source string, opts Options) (*ContractUnit, error) {
	toks := lex(source)
	if line, ok := braceBalance(toks); !ok {
		return nil, &ParseError{Kind: UnterminatedBlock, Line: line, Msg: "unbalanced braces"}
	}
	p := &parser{toks: toks, extraAuth: map[string]bool{}}
	for _, a := range opts.AuthPrimitives {
		p.extraAuth[a] = true
	}
	entryLine, ok := p.seekEntry()
	if !ok {
		return nil, &ParseError{Kind: MalformedDispatch, Msg: "no entry function taking an input record found"}
	}
	_ = entryLine
	body := p.parseBlock()

	unit := &ContractUnit{Source: source}
	seen := map[string]int{}
	for _, st := range body {
		cond, isCond := st.(*CondStmt)
		if !isCond {
			continue
		}
		name, isDispatch := dispatchName(cond.Cond)
		if !isDispatch {
			continue
		}
		br := &FunctionBranch{Name: name, Line: cond.Line, Body: cond.Then}
		br.StateKeys = collectStateKeys(br.Body)
		unit.Branches = append(unit.Branches, br)
		seen[name]++
		if seen[name] == 2 {
			unit.Duplicates = append(unit.Duplicates, name)
		}
	}
	return unit, nil
}

// braceBalance reports whether braces pair up; returns the offending line on
// failure.
func braceBalance(toks []token) (int, bool) {
	depth := 0
	lastLine := 1
	for _, t := range toks {
		lastLine = t.line
		switch t.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth < 0 {
				return t.line, false
			}
		}
	}
	if depth != 0 {
		return lastLine, false
	}
	return 0, true
}

type parser struct {
	toks      []token
	i         int
	extraAuth map[string]bool
}

func (p *parser) at(i int) token {
	if i < 0 || i >= len(p.toks) {
		return token{kind: -1}
	}
	return p.toks[i]
}

func (p *parser) cur() token  { return p.at(p.i) }
func (p *parser) next() token { t := p.cur(); p.i++; return t }

// seekEntry positions the parser just inside the entry function body. The
// entry shape is `<retType> <name>(<inType> <param>) {` at brace depth zero.
func (p *parser) seekEntry() (int, bool) {
	depth := 0
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		switch t.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
		case tokIdent:
			if depth != 0 {
				continue
			}
			if p.at(i+1).kind == tokIdent &&
				p.at(i+2).kind == tokLParen &&
				p.at(i+3).kind == tokIdent &&
				p.at(i+4).kind == tokIdent &&
				p.at(i+5).kind == tokRParen &&
				p.at(i+6).kind == tokLBrace {
				p.i = i + 7
				return t.line, true
			}
		}
	}
	return 0, false
}

// parseBlock consumes statements up to and including the closing brace.
func (p *parser) parseBlock() []Statement {
	var out []Statement
	for {
		t := p.cur()
		if t.kind == -1 || t.kind == tokRBrace {
			p.i++
			return out
		}
		before := p.i
		if st := p.parseStatement(); st != nil {
			out = append(out, st)
		}
		if p.i == before { // never stall on unexpected input
			p.i++
		}
	}
}

func (p *parser) parseStatement() Statement {
	t := p.cur()
	if t.kind == tokIdent {
		switch t.text {
		case "if":
			return p.parseIf()
		case "return":
			return p.parseReturn()
		}
	}
	return p.parseSimple()
}

func (p *parser) parseIf() Statement {
	line := p.next().line // "if"
	cond := p.parseParenExpr()
	var then, els []Statement
	if p.cur().kind == tokLBrace {
		p.i++
		then = p.parseBlock()
	} else if st := p.parseStatement(); st != nil {
		then = []Statement{st}
	}
	if p.cur().kind == tokIdent && p.cur().text == "else" {
		p.i++
		if p.cur().kind == tokLBrace {
			p.i++
			els = p.parseBlock()
		} else if st := p.parseStatement(); st != nil { // else-if chain
			els = []Statement{st}
		}
	}
	return &CondStmt{Line: line, Cond: cond, Then: then, Else: els}
}

// parseParenExpr parses `( expr )`, collecting tokens to the matching paren.
func (p *parser) parseParenExpr() Expr {
	if p.cur().kind != tokLParen {
		return nil
	}
	p.i++
	start := p.i
	depth := 0
	for p.cur().kind != -1 {
		k := p.cur().kind
		if k == tokLParen {
			depth++
		} else if k == tokRParen {
			if depth == 0 {
				break
			}
			depth--
		}
		p.i++
	}
	seg := p.toks[start:p.i]
	p.i++ // closing paren
	return p.parseExprTokens(seg)
}

func (p *parser) parseReturn() Statement {
	line := p.next().line // "return"
	start := p.i
	for p.cur().kind != -1 && p.cur().kind != tokSemi {
		p.i++
	}
	seg := p.toks[start:p.i]
	if p.cur().kind == tokSemi {
		p.i++
	}
	var v Expr
	if len(seg) > 0 {
		v = p.parseExprTokens(seg)
	}
	return &ReturnStmt{Line: line, Value: v}
}

// parseSimple handles declarations, assignments, and bare calls up to ';'.
func (p *parser) parseSimple() Statement {
	line := p.cur().line
	start := p.i
	depth := 0
	for p.cur().kind != -1 {
		k := p.cur().kind
		if k == tokLParen {
			depth++
		} else if k == tokRParen {
			depth--
		} else if k == tokSemi && depth <= 0 {
			break
		} else if (k == tokLBrace || k == tokRBrace) && depth <= 0 {
			break
		}
		p.i++
	}
	seg := p.toks[start:p.i]
	if p.cur().kind == tokSemi {
		p.i++
	}
	if len(seg) == 0 {
		return nil
	}

	// single '=' at paren depth zero splits target from value
	pd := 0
	eq := -1
	for i, t := range seg {
		switch t.kind {
		case tokLParen:
			pd++
		case tokRParen:
			pd--
		case tokOp:
			if t.text == "=" && pd == 0 {
				eq = i
			}
		}
	}
	if eq > 0 && seg[eq-1].kind == tokIdent {
		return &AssignStmt{
			Line:   line,
			Target: seg[eq-1].text,
			Value:  p.parseExprTokens(seg[eq+1:]),
			Decl:   eq > 1,
		}
	}
	if seg[0].kind == tokIdent && len(seg) > 1 && seg[1].kind == tokLParen {
		if ce, ok := p.parseExprTokens(seg).(*CallExpr); ok {
			return &CallStmt{Line: line, Call: ce}
		}
	}
	// bare declaration such as `outputStruct out;`
	for i := len(seg) - 1; i >= 0; i-- {
		if seg[i].kind == tokIdent {
			return &AssignStmt{Line: line, Target: seg[i].text, Decl: true}
		}
	}
	return nil
}

// --- expression parsing over a token slice ---

type exprParser struct {
	toks []token
	i    int
	p    *parser
}

func (p *parser) parseExprTokens(seg []token) Expr {
	ep := &exprParser{toks: seg, p: p}
	return ep.parseOr()
}

func (e *exprParser) at(i int) token {
	if i < 0 || i >= len(e.toks) {
		return token{kind: -1}
	}
	return e.toks[i]
}

func (e *exprParser) cur() token { return e.at(e.i) }

func (e *exprParser) opIs(ops ...string) (string, bool) {
	t := e.cur()
	if t.kind != tokOp {
		return "", false
	}
	for _, o := range ops {
		if t.text == o {
			return o, true
		}
	}
	return "", false
}

func (e *exprParser) parseOr() Expr {
	l := e.parseAnd()
	for {
		op, ok := e.opIs("||")
		if !ok {
			return l
		}
		e.i++
		r := e.parseAnd()
		if r == nil {
			return l
		}
		l = &BinaryExpr{Op: op, X: l, Y: r}
	}
}

func (e *exprParser) parseAnd() Expr {
	l := e.parseCmp()
	for {
		op, ok := e.opIs("&&")
		if !ok {
			return l
		}
		e.i++
		r := e.parseCmp()
		if r == nil {
			return l
		}
		l = &BinaryExpr{Op: op, X: l, Y: r}
	}
}

func (e *exprParser) parseCmp() Expr {
	l := e.parseAdd()
	for {
		op, ok := e.opIs("==", "!=", "<", ">", "<=", ">=")
		if !ok {
			return l
		}
		e.i++
		r := e.parseAdd()
		if r == nil {
			return l
		}
		l = &BinaryExpr{Op: op, X: l, Y: r}
	}
}

func (e *exprParser) parseAdd() Expr {
	l := e.parseMul()
	for {
		op, ok := e.opIs("+", "-")
		if !ok {
			return l
		}
		e.i++
		r := e.parseMul()
		if r == nil {
			return l
		}
		l = &BinaryExpr{Op: op, X: l, Y: r}
	}
}

func (e *exprParser) parseMul() Expr {
	l := e.parseUnary()
	for {
		op, ok := e.opIs("*", "/")
		if !ok {
			return l
		}
		e.i++
		r := e.parseUnary()
		if r == nil {
			return l
		}
		l = &BinaryExpr{Op: op, X: l, Y: r}
	}
}

func (e *exprParser) parseUnary() Expr {
	if _, ok := e.opIs("!"); ok {
		e.i++
		x := e.parseUnary()
		if x == nil {
			return nil
		}
		return &UnaryExpr{Op: "!", X: x}
	}
	if _, ok := e.opIs("-"); ok {
		e.i++
		if x := e.parseUnary(); x != nil {
			if lit, isLit := x.(*IntLit); isLit {
				return &IntLit{Value: -lit.Value}
			}
			return &UnaryExpr{Op: "-", X: x}
		}
		return nil
	}
	return e.parsePrimary()
}

func (e *exprParser) parsePrimary() Expr {
	t := e.cur()
	switch t.kind {
	case tokNumber:
		e.i++
		v, _ := strconv.ParseInt(t.text, 10, 64)
		return &IntLit{Value: v}
	case tokString:
		e.i++
		return &StringLit{Value: t.text}
	case tokIdent:
		if t.text == "true" || t.text == "false" {
			e.i++
			return &BoolLit{Value: t.text == "true"}
		}
		if e.at(e.i+1).kind == tokLParen {
			return e.parseCall()
		}
		e.i++
		return &Ident{Name: t.text}
	case tokLParen:
		e.i++
		x := e.parseOr()
		if e.cur().kind == tokRParen {
			e.i++
		}
		return x
	}
	return nil
}

func (e *exprParser) parseCall() Expr {
	name := e.cur()
	e.i += 2 // ident and '('
	call := &CallExpr{Line: name.line, Name: name.text, Prim: Classify(name.text, e.p.extraAuth)}
	for {
		t := e.cur()
		if t.kind == -1 || t.kind == tokRParen {
			e.i++
			return call
		}
		if t.kind == tokComma {
			e.i++
			continue
		}
		start := e.i
		if arg := e.parseOr(); arg != nil {
			call.Args = append(call.Args, arg)
		}
		if e.i == start {
			e.i++
		}
	}
}

// --- helpers shared with the analysis layer ---

// WalkCalls visits every primitive call in statement order, conditions before
// their arms, then-arm before else-arm.
func WalkCalls(stmts []Statement, fn func(*CallExpr)) {
	for _, st := range stmts {
		switch s := st.(type) {
		case *CallStmt:
			WalkExprCalls(s.Call, fn)
		case *AssignStmt:
			WalkExprCalls(s.Value, fn)
		case *CondStmt:
			WalkExprCalls(s.Cond, fn)
			WalkCalls(s.Then, fn)
			WalkCalls(s.Else, fn)
		case *ReturnStmt:
			WalkExprCalls(s.Value, fn)
		}
	}
}

// WalkExprCalls visits calls nested anywhere in an expression tree.
func WalkExprCalls(e Expr, fn func(*CallExpr)) {
	switch x := e.(type) {
	case nil:
		return
	case *CallExpr:
		fn(x)
		for _, a := range x.Args {
			WalkExprCalls(a, fn)
		}
	case *UnaryExpr:
		WalkExprCalls(x.X, fn)
	case *BinaryExpr:
		WalkExprCalls(x.X, fn)
		WalkExprCalls(x.Y, fn)
	}
}

func collectStateKeys(body []Statement) []string {
	var keys []string
	seen := map[string]bool{}
	WalkCalls(body, func(c *CallExpr) {
		if c.Prim != PrimStateRead && c.Prim != PrimStateWrite {
			return
		}
		k := StateKey(c)
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	})
	return keys
}

// dispatchName recognizes `in.functionName == "<literal>"` in either operand
// order.
func dispatchName(cond Expr) (string, bool) {
	b, ok := cond.(*BinaryExpr)
	if !ok || b.Op != "==" {
		return "", false
	}
	if n, ok := matchDispatch(b.X, b.Y); ok {
		return n, true
	}
	return matchDispatch(b.Y, b.X)
}

func matchDispatch(idSide, litSide Expr) (string, bool) {
	id, ok := idSide.(*Ident)
	if !ok {
		return "", false
	}
	if id.Name != "functionName" && !strings.HasSuffix(id.Name, ".functionName") {
		return "", false
	}
	lit, ok := litSide.(*StringLit)
	if !ok {
		return "", false
	}
	return lit.Value, true
}
