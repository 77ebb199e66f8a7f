package setuppy

import "github.com/bazelbuild/buildtools/build"

// maxDepth bounds identifier indirection, so self-referencing assignments
// cannot loop.
const maxDepth = 32

// kwarg is one evaluated keyword argument. ok is false when the value
// depends on anything other than literals and module-level constants.
type kwarg struct {
	value any
	ok    bool
}

// evaluator folds constant expressions. Values are string, bool, nil,
// []any (lists and tuples) and map[string]any.
type evaluator struct {
	env map[string]build.Expr
}

// newEvaluator records the module-level assignments in stmts. A later
// assignment replaces an earlier one; "+=" extends it.
func newEvaluator(stmts []build.Expr) *evaluator {
	ev := &evaluator{env: make(map[string]build.Expr)}
	for _, stmt := range stmts {
		as, ok := stmt.(*build.AssignExpr)
		if !ok {
			continue
		}
		id, ok := as.LHS.(*build.Ident)
		if !ok {
			continue
		}
		switch as.Op {
		case "=":
			ev.env[id.Name] = as.RHS
		case "+=":
			if prev, ok := ev.env[id.Name]; ok {
				ev.env[id.Name] = &build.BinaryExpr{X: prev, Op: "+", Y: as.RHS}
			} else {
				delete(ev.env, id.Name)
			}
		}
	}
	return ev
}

// kwargs evaluates the keyword arguments of call, expanding **dict
// arguments whose value is known. Explicit keywords win over expanded ones.
func (ev *evaluator) kwargs(call *build.CallExpr) map[string]kwarg {
	out := make(map[string]kwarg)
	var explicit []*build.AssignExpr
	for _, arg := range call.List {
		switch a := arg.(type) {
		case *build.AssignExpr:
			explicit = append(explicit, a)
		case *build.UnaryExpr:
			if a.Op != "**" {
				continue
			}
			v, ok := ev.eval(a.X, 0)
			m, isMap := v.(map[string]any)
			if !ok || !isMap {
				continue
			}
			for k, val := range m {
				out[k] = kwarg{value: val, ok: true}
			}
		}
	}
	for _, a := range explicit {
		id, ok := a.LHS.(*build.Ident)
		if !ok {
			continue
		}
		v, ok := ev.eval(a.RHS, 0)
		out[id.Name] = kwarg{value: v, ok: ok}
	}
	return out
}

func (ev *evaluator) eval(x build.Expr, depth int) (any, bool) {
	if depth > maxDepth {
		return nil, false
	}
	switch x := x.(type) {
	case *build.StringExpr:
		return x.Value, true
	case *build.LiteralExpr:
		// Numbers keep their source spelling.
		return x.Token, true
	case *build.Ident:
		switch x.Name {
		case "True":
			return true, true
		case "False":
			return false, true
		case "None":
			return nil, true
		}
		rhs, ok := ev.env[x.Name]
		if !ok {
			return nil, false
		}
		return ev.eval(rhs, depth+1)
	case *build.ParenExpr:
		return ev.eval(x.X, depth+1)
	case *build.ListExpr:
		return ev.list(x.List, depth)
	case *build.TupleExpr:
		return ev.list(x.List, depth)
	case *build.DictExpr:
		m := make(map[string]any, len(x.List))
		for _, kv := range x.List {
			k, ok := ev.eval(kv.Key, depth+1)
			key, isStr := k.(string)
			if !ok || !isStr {
				return nil, false
			}
			v, ok := ev.eval(kv.Value, depth+1)
			if !ok {
				return nil, false
			}
			m[key] = v
		}
		return m, true
	case *build.CallExpr:
		return ev.call(x, depth)
	case *build.BinaryExpr:
		if x.Op != "+" {
			return nil, false
		}
		l, ok := ev.eval(x.X, depth+1)
		if !ok {
			return nil, false
		}
		r, ok := ev.eval(x.Y, depth+1)
		if !ok {
			return nil, false
		}
		return concat(l, r)
	}
	return nil, false
}

func (ev *evaluator) list(items []build.Expr, depth int) (any, bool) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, ok := ev.eval(item, depth+1)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// call evaluates the few builtins that are constant in their arguments:
// dict(k=v, ...), list(...), tuple(...) and str(...).
func (ev *evaluator) call(x *build.CallExpr, depth int) (any, bool) {
	fn, ok := x.X.(*build.Ident)
	if !ok {
		return nil, false
	}
	switch fn.Name {
	case "dict":
		m := make(map[string]any, len(x.List))
		for _, arg := range x.List {
			as, ok := arg.(*build.AssignExpr)
			if !ok {
				return nil, false
			}
			id, ok := as.LHS.(*build.Ident)
			if !ok {
				return nil, false
			}
			v, ok := ev.eval(as.RHS, depth+1)
			if !ok {
				return nil, false
			}
			m[id.Name] = v
		}
		return m, true
	case "list", "tuple":
		if len(x.List) == 0 {
			return []any{}, true
		}
		if len(x.List) != 1 {
			return nil, false
		}
		v, ok := ev.eval(x.List[0], depth+1)
		l, isList := v.([]any)
		return l, ok && isList
	case "str":
		if len(x.List) != 1 {
			return nil, false
		}
		v, ok := ev.eval(x.List[0], depth+1)
		s, isStr := v.(string)
		return s, ok && isStr
	}
	return nil, false
}

func concat(l, r any) (any, bool) {
	switch l := l.(type) {
	case string:
		if r, ok := r.(string); ok {
			return l + r, true
		}
	case []any:
		if r, ok := r.([]any); ok {
			return append(append([]any{}, l...), r...), true
		}
	}
	return nil, false
}
