package analysis

import (
	"fmt"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

type taint int

const (
	taintNone taint = iota
	taintAuth       // variable holds the result of an authorization check
	taintCaller     // variable holds a caller-keyed state read (voting idiom)
)

// guardState is the dominance context at one point of the statement tree.
type guardState struct {
	authActive  bool // every path here has passed a successful auth check
	callerGated bool // gated by a caller-keyed state read; heuristic guard
	ambiguous   bool // auth appeared in a non-dominating position (e.g. OR)
	bounds      map[string]bool
}

func (g guardState) clone() guardState {
	nb := make(map[string]bool, len(g.bounds))
	for k, v := range g.bounds {
		nb[k] = v
	}
	g.bounds = nb
	return g
}

type walker struct {
	bm     *BranchModel
	taints map[string]taint
}

func (w *walker) walk(stmts []lang.Statement, gs guardState) {
	for _, st := range stmts {
		switch s := st.(type) {
		case *lang.CallStmt:
			w.scanExpr(s.Call, gs, s.Line)
		case *lang.AssignStmt:
			w.scanExpr(s.Value, gs, s.Line)
			w.recordTaint(s.Target, s.Value)
		case *lang.ReturnStmt:
			w.scanExpr(s.Value, gs, s.Line)
		case *lang.CondStmt:
			f := w.condFacts(s.Cond)

			// arithmetic inside the comparison itself is its own guard
			condGS := gs.clone()
			thenGS := gs.clone()
			elseGS := gs.clone()
			for _, id := range f.bounds {
				condGS.bounds[id] = true
				thenGS.bounds[id] = true
				elseGS.bounds[id] = true
			}
			w.scanExpr(s.Cond, condGS, s.Line)
			if f.amb {
				thenGS.ambiguous = true
				elseGS.ambiguous = true
				w.bm.Warnings = append(w.bm.Warnings,
					fmt.Sprintf("line %d: authorization check in a non-dominating position; downgrading to heuristic", s.Line))
			}
			if f.pos {
				thenGS.authActive = true
			}
			if f.neg {
				elseGS.authActive = true
			}
			if f.caller {
				thenGS.callerGated = true
				elseGS.callerGated = true
			}
			w.walk(s.Then, thenGS)
			w.walk(s.Else, elseGS)

			// guard-clause continuation: `if (!authorized) { return; }`
			if terminates(s.Then) {
				if f.neg {
					gs.authActive = true
				}
				if f.amb {
					gs.ambiguous = true
				}
				for _, id := range f.bounds {
					gs.bounds[id] = true
				}
			}
		}
	}
}

func (w *walker) recordTaint(target string, value lang.Expr) {
	call, ok := value.(*lang.CallExpr)
	if !ok {
		w.taints[target] = taintNone
		return
	}
	switch {
	case call.Prim == lang.PrimAuthCheck:
		w.taints[target] = taintAuth
	case call.Prim == lang.PrimStateRead && lang.CallerKeyed(call):
		w.taints[target] = taintCaller
	default:
		w.taints[target] = taintNone
	}
}

// scanExpr records events, privileged-call facts, and arithmetic ops for
// every call and operator nested in an expression.
func (w *walker) scanExpr(e lang.Expr, gs guardState, line int) {
	switch x := e.(type) {
	case nil:
		return
	case *lang.CallExpr:
		w.recordCall(x, gs)
		for _, a := range x.Args {
			w.scanExpr(a, gs, line)
		}
	case *lang.UnaryExpr:
		w.scanExpr(x.X, gs, line)
	case *lang.BinaryExpr:
		if x.Op == "+" || x.Op == "-" || x.Op == "*" {
			w.bm.Arith = append(w.bm.Arith, ArithmeticOp{
				Op:          x.Op,
				Line:        line,
				Text:        lang.ExprString(x),
				LiteralOnly: literalOnly(x),
				Guarded:     arithGuarded(x, gs),
			})
		}
		w.scanExpr(x.X, gs, line)
		w.scanExpr(x.Y, gs, line)
	}
}

func (w *walker) recordCall(c *lang.CallExpr, gs guardState) {
	switch c.Prim {
	case lang.PrimStateWrite:
		w.bm.Ordering = append(w.bm.Ordering, CallEvent{
			Kind: EventStateWrite, Prim: c.Prim, Name: c.Name, StateKey: lang.StateKey(c), Line: c.Line,
		})
		w.addPrivileged(c, gs)
	case lang.PrimFundTransfer, lang.PrimExternalCall:
		w.bm.Ordering = append(w.bm.Ordering, CallEvent{
			Kind: EventExternal, Prim: c.Prim, Name: c.Name, Line: c.Line,
		})
		w.addPrivileged(c, gs)
	case lang.PrimBalanceQuery:
		w.bm.Ordering = append(w.bm.Ordering, CallEvent{
			Kind: EventBalanceRead, Prim: c.Prim, Name: c.Name, Line: c.Line,
		})
	}
}

func (w *walker) addPrivileged(c *lang.CallExpr, gs guardState) {
	pc := PrivilegedCall{
		Call:     c,
		Kind:     c.Prim,
		StateKey: lang.StateKey(c),
		Line:     c.Line,
	}
	switch {
	case gs.authActive:
		pc.Guarded = true
		pc.Confidence = model.ConfidenceCertain
	case gs.callerGated:
		pc.Guarded = true
		pc.Confidence = model.ConfidenceHeuristic
	case gs.ambiguous:
		pc.Guarded = false
		pc.Confidence = model.ConfidenceHeuristic
	default:
		pc.Guarded = false
		pc.Confidence = model.ConfidenceCertain
	}
	w.bm.Privileged = append(w.bm.Privileged, pc)
}

// condFacts classifies a conditional's relationship to authorization. pos and
// neg are one-sided implications and must be combined accordingly: under `&&`
// only pos survives a mixed pair (the other conjunct may be the reason the
// whole condition is false), under `||` only neg does.
type condFacts struct {
	pos    bool // condition true implies authorized
	neg    bool // condition false implies authorized
	amb    bool
	caller bool
	bounds []string
}

func (w *walker) condFacts(e lang.Expr) condFacts {
	switch x := e.(type) {
	case *lang.CallExpr:
		if x.Prim == lang.PrimAuthCheck {
			return condFacts{pos: true}
		}
		if x.Prim == lang.PrimStateRead && lang.CallerKeyed(x) {
			return condFacts{caller: true}
		}
	case *lang.Ident:
		switch w.taints[x.Name] {
		case taintAuth:
			return condFacts{pos: true}
		case taintCaller:
			return condFacts{caller: true}
		}
	case *lang.UnaryExpr:
		if x.Op == "!" {
			f := w.condFacts(x.X)
			f.pos, f.neg = f.neg, f.pos
			return f
		}
	case *lang.BinaryExpr:
		switch x.Op {
		case "&&":
			a := w.condFacts(x.X)
			b := w.condFacts(x.Y)
			f := condFacts{
				pos:    a.pos || b.pos,
				neg:    a.neg && b.neg,
				caller: a.caller || b.caller,
				amb:    a.amb || b.amb,
				bounds: append(a.bounds, b.bounds...),
			}
			// `!auth && other` false does not imply authorized: the other
			// conjunct may be what failed. The dropped guard is surfaced as
			// ambiguity instead of silently crediting it.
			if a.neg != b.neg && !f.pos {
				f.amb = true
			}
			return f
		case "||":
			a := w.condFacts(x.X)
			b := w.condFacts(x.Y)
			f := condFacts{
				pos:    a.pos && b.pos,
				neg:    a.neg || b.neg,
				caller: a.caller || b.caller,
				amb:    a.amb || b.amb,
				bounds: append(a.bounds, b.bounds...),
			}
			// `auth || other` true does not imply authorized
			if a.pos != b.pos && !f.neg {
				f.amb = true
			}
			return f
		case "==", "!=":
			if f, ok := w.boolCompareFacts(x.X, x.Y, x.Op); ok {
				return f
			}
			if f, ok := w.boolCompareFacts(x.Y, x.X, x.Op); ok {
				return f
			}
		case "<", ">", "<=", ">=":
			return condFacts{bounds: identNames(x)}
		}
	}
	return condFacts{}
}

// boolCompareFacts handles `auth == false` / `auth != true` spellings.
func (w *walker) boolCompareFacts(side, litSide lang.Expr, op string) (condFacts, bool) {
	bl, ok := litSide.(*lang.BoolLit)
	if !ok {
		return condFacts{}, false
	}
	f := w.condFacts(side)
	if !f.pos && !f.neg && !f.caller {
		return condFacts{}, false
	}
	negate := (op == "==" && !bl.Value) || (op == "!=" && bl.Value)
	if negate {
		f.pos, f.neg = f.neg, f.pos
	}
	return f, true
}

func identNames(e lang.Expr) []string {
	var out []string
	var visit func(lang.Expr)
	visit = func(e lang.Expr) {
		switch x := e.(type) {
		case *lang.Ident:
			out = append(out, x.Name)
		case *lang.UnaryExpr:
			visit(x.X)
		case *lang.BinaryExpr:
			visit(x.X)
			visit(x.Y)
		case *lang.CallExpr:
			for _, a := range x.Args {
				visit(a)
			}
		}
	}
	visit(e)
	return out
}

func literalOnly(e lang.Expr) bool {
	switch x := e.(type) {
	case *lang.IntLit:
		return true
	case *lang.BinaryExpr:
		return literalOnly(x.X) && literalOnly(x.Y)
	}
	return false
}

// arithGuarded reports whether any non-literal operand of the expression has
// a dominating bounds comparison.
func arithGuarded(e *lang.BinaryExpr, gs guardState) bool {
	for _, id := range identNames(e) {
		if gs.bounds[id] {
			return true
		}
	}
	return false
}

func terminates(stmts []lang.Statement) bool {
	for _, st := range stmts {
		if _, ok := st.(*lang.ReturnStmt); ok {
			return true
		}
	}
	return false
}
