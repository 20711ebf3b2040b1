package expr

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"custodia-hq/saturn/pkg/document"
)

// EvalError reports a type mismatch or unresolved reference during
// evaluation.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return "evaluation error: " + e.Message
}

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Message: fmt.Sprintf(format, args...)}
}

// Env is the read-only binding context for one evaluation.
type Env struct {
	// Document is a detached snapshot of the record's document. May be
	// nil when the expression does not reference it.
	Document *document.Document

	// Vars holds named bindings such as currentDate and eventInput.
	Vars map[string]any
}

// Expr is a compiled condition expression, safe for concurrent evaluation.
type Expr struct {
	src  string
	root node
}

// Compile parses an expression. An empty expression compiles to a condition
// that is always true.
func Compile(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return &Expr{src: src, root: &literalNode{value: true}}, nil
	}
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, root: root}, nil
}

// Source returns the original expression text.
func (e *Expr) Source() string { return e.src }

// Eval evaluates the expression and returns its value.
func (e *Expr) Eval(env *Env) (any, error) {
	if env == nil {
		env = &Env{}
	}
	return eval(e.root, env)
}

// EvalBool evaluates the expression and requires a boolean result.
func (e *Expr) EvalBool(env *Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, evalErrorf("expression %q evaluated to %T, want bool", e.src, v)
	}
	return b, nil
}

func eval(n node, env *Env) (any, error) {
	switch n := n.(type) {
	case *literalNode:
		return n.value, nil

	case *identNode:
		return resolveIdent(n, env)

	case *selectorNode:
		target, err := eval(n.target, env)
		if err != nil {
			return nil, err
		}
		return selectField(target, n.field)

	case *indexNode:
		target, err := eval(n.target, env)
		if err != nil {
			return nil, err
		}
		key, err := eval(n.key, env)
		if err != nil {
			return nil, err
		}
		return indexValue(target, key)

	case *callNode:
		target, err := eval(n.target, env)
		if err != nil {
			return nil, err
		}
		args := make([]any, len(n.args))
		for i, a := range n.args {
			if args[i], err = eval(a, env); err != nil {
				return nil, err
			}
		}
		return callMethod(target, n.method, args)

	case *unaryNode:
		operand, err := eval(n.operand, env)
		if err != nil {
			return nil, err
		}
		return evalUnary(n.op, operand)

	case *binaryNode:
		return evalBinary(n, env)
	}
	return nil, evalErrorf("unknown node %T", n)
}

func resolveIdent(n *identNode, env *Env) (any, error) {
	if n.name == "document" {
		if env.Document == nil {
			return nil, evalErrorf("no document bound")
		}
		return env.Document, nil
	}
	if v, ok := env.Vars[n.name]; ok {
		return v, nil
	}
	return nil, evalErrorf("unknown identifier %q", n.name)
}

func selectField(target any, field string) (any, error) {
	switch t := target.(type) {
	case *document.Document:
		switch field {
		case "id":
			return t.ID, nil
		case "type":
			return t.Type, nil
		case "path":
			return t.Path, nil
		case "title":
			return t.Title, nil
		case "trashed":
			return t.Trashed, nil
		case "locked":
			return t.Locked, nil
		case "record":
			return t.Record, nil
		case "legalHold":
			return t.LegalHold, nil
		case "properties":
			return t.Properties, nil
		}
		// Fall back to a metadata property of that name.
		if v, ok := t.Properties[field]; ok {
			return v, nil
		}
		return nil, evalErrorf("document has no field %q", field)

	case map[string]any:
		if v, ok := t[field]; ok {
			return v, nil
		}
		return nil, evalErrorf("no field %q", field)
	}
	return nil, evalErrorf("cannot select field %q from %T", field, target)
}

func indexValue(target, key any) (any, error) {
	switch t := target.(type) {
	case *document.Document:
		k, ok := key.(string)
		if !ok {
			return nil, evalErrorf("document index must be a string, got %T", key)
		}
		return t.Properties[k], nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, evalErrorf("map index must be a string, got %T", key)
		}
		return t[k], nil
	}
	return nil, evalErrorf("cannot index %T", target)
}

func callMethod(target any, method string, args []any) (any, error) {
	switch t := target.(type) {
	case string:
		return callStringMethod(t, method, args)
	case time.Time:
		return callTimeMethod(t, method, args)
	}
	return nil, evalErrorf("cannot call %q on %T", method, target)
}

func callStringMethod(s, method string, args []any) (any, error) {
	needString := func() (string, error) {
		if len(args) != 1 {
			return "", evalErrorf("%s expects 1 argument, got %d", method, len(args))
		}
		arg, ok := args[0].(string)
		if !ok {
			return "", evalErrorf("%s expects a string argument, got %T", method, args[0])
		}
		return arg, nil
	}

	switch method {
	case "startsWith":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(s, arg), nil
	case "endsWith":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(s, arg), nil
	case "contains":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		return strings.Contains(s, arg), nil
	case "equals":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		return s == arg, nil
	case "equalsIgnoreCase":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		return strings.EqualFold(s, arg), nil
	case "matches":
		arg, err := needString()
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, evalErrorf("invalid pattern %q: %v", arg, err)
		}
		return re.MatchString(s), nil
	case "toLowerCase":
		return strings.ToLower(s), nil
	case "toUpperCase":
		return strings.ToUpper(s), nil
	case "trim":
		return strings.TrimSpace(s), nil
	case "length":
		return float64(len(s)), nil
	case "isEmpty":
		return s == "", nil
	}
	return nil, evalErrorf("unknown string method %q", method)
}

func callTimeMethod(t time.Time, method string, args []any) (any, error) {
	needTime := func() (time.Time, error) {
		if len(args) != 1 {
			return time.Time{}, evalErrorf("%s expects 1 argument, got %d", method, len(args))
		}
		arg, ok := args[0].(time.Time)
		if !ok {
			return time.Time{}, evalErrorf("%s expects a date argument, got %T", method, args[0])
		}
		return arg, nil
	}

	switch method {
	case "before":
		arg, err := needTime()
		if err != nil {
			return nil, err
		}
		return t.Before(arg), nil
	case "after":
		arg, err := needTime()
		if err != nil {
			return nil, err
		}
		return t.After(arg), nil
	case "year":
		return float64(t.Year()), nil
	}
	return nil, evalErrorf("unknown date method %q", method)
}

func evalUnary(op tokenKind, operand any) (any, error) {
	switch op {
	case tokNot:
		b, ok := operand.(bool)
		if !ok {
			return nil, evalErrorf("operator ! expects bool, got %T", operand)
		}
		return !b, nil
	case tokMinus:
		n, ok := toNumber(operand)
		if !ok {
			return nil, evalErrorf("operator - expects number, got %T", operand)
		}
		return -n, nil
	}
	return nil, evalErrorf("unknown unary operator")
}

func evalBinary(n *binaryNode, env *Env) (any, error) {
	// Short-circuit boolean operators.
	if n.op == tokAnd || n.op == tokOr {
		left, err := eval(n.left, env)
		if err != nil {
			return nil, err
		}
		lb, ok := left.(bool)
		if !ok {
			return nil, evalErrorf("boolean operator expects bool, got %T", left)
		}
		if n.op == tokAnd && !lb {
			return false, nil
		}
		if n.op == tokOr && lb {
			return true, nil
		}
		right, err := eval(n.right, env)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(bool)
		if !ok {
			return nil, evalErrorf("boolean operator expects bool, got %T", right)
		}
		return rb, nil
	}

	left, err := eval(n.left, env)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.right, env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokEq:
		return valuesEqual(left, right), nil
	case tokNeq:
		return !valuesEqual(left, right), nil
	case tokLt, tokLte, tokGt, tokGte:
		return compareOrdered(n.op, left, right)
	case tokPlus:
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, evalErrorf("cannot concatenate string and %T", right)
			}
			return ls + rs, nil
		}
		return arith(n.op, left, right)
	case tokMinus, tokStar, tokSlash:
		return arith(n.op, left, right)
	}
	return nil, evalErrorf("unknown binary operator")
}

func valuesEqual(left, right any) bool {
	if lt, ok := left.(time.Time); ok {
		rt, ok := right.(time.Time)
		return ok && lt.Equal(rt)
	}
	if ln, ok := toNumber(left); ok {
		rn, rok := toNumber(right)
		return rok && ln == rn
	}
	return left == right
}

func compareOrdered(op tokenKind, left, right any) (any, error) {
	var cmp int
	switch lt := left.(type) {
	case time.Time:
		rt, ok := right.(time.Time)
		if !ok {
			return nil, evalErrorf("cannot compare date and %T", right)
		}
		cmp = lt.Compare(rt)
	case string:
		rs, ok := right.(string)
		if !ok {
			return nil, evalErrorf("cannot compare string and %T", right)
		}
		cmp = strings.Compare(lt, rs)
	default:
		ln, lok := toNumber(left)
		rn, rok := toNumber(right)
		if !lok || !rok {
			return nil, evalErrorf("cannot compare %T and %T", left, right)
		}
		switch {
		case ln < rn:
			cmp = -1
		case ln > rn:
			cmp = 1
		}
	}

	switch op {
	case tokLt:
		return cmp < 0, nil
	case tokLte:
		return cmp <= 0, nil
	case tokGt:
		return cmp > 0, nil
	case tokGte:
		return cmp >= 0, nil
	}
	return nil, evalErrorf("unknown comparison operator")
}

func arith(op tokenKind, left, right any) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		return nil, evalErrorf("arithmetic expects numbers, got %T and %T", left, right)
	}
	switch op {
	case tokPlus:
		return ln + rn, nil
	case tokMinus:
		return ln - rn, nil
	case tokStar:
		return ln * rn, nil
	case tokSlash:
		if rn == 0 {
			return nil, evalErrorf("division by zero")
		}
		return ln / rn, nil
	}
	return nil, evalErrorf("unknown arithmetic operator")
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
