package lang

import (
	"fmt"
	"strings"
)

// ExprString renders an expression back to dialect-ish text for rationales
// and snippets. Output is stable, not a faithful round-trip of the source.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case nil:
		return ""
	case *Ident:
		return x.Name
	case *StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = ExprString(a)
		}
		return x.Name + "(" + strings.Join(args, ", ") + ")"
	case *UnaryExpr:
		return x.Op + ExprString(x.X)
	case *BinaryExpr:
		return ExprString(x.X) + " " + x.Op + " " + ExprString(x.Y)
	}
	return ""
}
