package cel

import (
	"bytes"
	"errors"
	"fmt"
	"math"
)

// Evaluate walks the expression against ctx and produces a value. Every
// failure is propagated immediately; there are no partial results.
func (e *Expression) Evaluate(ctx *Context) (Value, error) {
	res, err := evalExpr(e.expr, ctx)
	if err != nil {
		return nil, err
	}
	if res.isFn {
		return nil, &IllegalTargetError{Target: "function reference used as a value"}
	}
	return res.val, nil
}

// evalResult is either a value or a function reference awaiting a call.
type evalResult struct {
	val  Value
	fn   Function
	isFn bool
}

func valueResult(v Value) evalResult { return evalResult{val: v} }

func (r evalResult) asBool() (bool, error) {
	if r.isFn {
		return false, &IllegalTargetError{Target: "function reference used as a bool"}
	}
	return AsBool(r.val)
}

func evalExpr(expr Expr, ctx *Context) (evalResult, error) {
	switch e := expr.(type) {
	case LiteralExpr:
		return valueResult(e.Value), nil

	case IdentExpr:
		item, err := ctx.lookup(e.Name)
		if err != nil {
			return evalResult{}, err
		}
		if item.fn != nil {
			return evalResult{fn: item.fn, isFn: true}, nil
		}
		return valueResult(item.value), nil

	case TernaryExpr:
		cond, err := evalExpr(e.Cond, ctx)
		if err != nil {
			return evalResult{}, err
		}
		taken, err := cond.asBool()
		if err != nil {
			return evalResult{}, err
		}
		// Only the taken branch is evaluated.
		if taken {
			return evalExpr(e.Then, ctx)
		}
		return evalExpr(e.Else, ctx)

	case OrExpr:
		left, err := evalBool(e.Left, ctx)
		if err != nil {
			return evalResult{}, err
		}
		right, err := evalBool(e.Right, ctx)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(Bool(left || right)), nil

	case AndExpr:
		left, err := evalBool(e.Left, ctx)
		if err != nil {
			return evalResult{}, err
		}
		right, err := evalBool(e.Right, ctx)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(Bool(left && right)), nil

	case RelationExpr:
		left, err := evalValue(e.Left, ctx)
		if err != nil {
			return evalResult{}, err
		}
		right, err := evalValue(e.Right, ctx)
		if err != nil {
			return evalResult{}, err
		}
		v, err := evalRelation(e.Op, left, right)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(v), nil

	case ArithmeticExpr:
		left, err := evalValue(e.Left, ctx)
		if err != nil {
			return evalResult{}, err
		}
		right, err := evalValue(e.Right, ctx)
		if err != nil {
			return evalResult{}, err
		}
		v, err := evalArithmetic(e.Op, left, right)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(v), nil

	case UnaryExpr:
		v, err := evalValue(e.Operand, ctx)
		if err != nil {
			return evalResult{}, err
		}
		out, err := evalUnary(e.Op, v)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(out), nil

	case MemberExpr:
		target, err := evalExpr(e.Target, ctx)
		if err != nil {
			return evalResult{}, err
		}
		return evalMember(target, e.Member, ctx)

	case ListExpr:
		list := make(List, 0, len(e.Elems))
		for _, elem := range e.Elems {
			v, err := evalValue(elem, ctx)
			if err != nil {
				return evalResult{}, err
			}
			list = append(list, v)
		}
		return valueResult(list), nil

	case MapExpr:
		m := NewMap()
		for _, entry := range e.Entries {
			key, err := evalValue(entry.Key, ctx)
			if err != nil {
				return evalResult{}, err
			}
			v, err := evalValue(entry.Value, ctx)
			if err != nil {
				return evalResult{}, err
			}
			if err := m.Set(key, v); err != nil {
				return evalResult{}, fmt.Errorf("cel: illegal map key kind %s: %w", key.Kind(), err)
			}
		}
		return valueResult(m), nil

	case StructExpr:
		m := NewMap()
		for _, field := range e.Fields {
			v, err := evalValue(field.Value, ctx)
			if err != nil {
				return evalResult{}, err
			}
			m.SetString(field.Name, v)
		}
		return valueResult(m), nil

	default:
		return evalResult{}, fmt.Errorf("cel: unexpected expression node %T", expr)
	}
}

func evalValue(expr Expr, ctx *Context) (Value, error) {
	res, err := evalExpr(expr, ctx)
	if err != nil {
		return nil, err
	}
	if res.isFn {
		return nil, &IllegalTargetError{Target: "function reference used as a value"}
	}
	return res.val, nil
}

func evalBool(expr Expr, ctx *Context) (bool, error) {
	res, err := evalExpr(expr, ctx)
	if err != nil {
		return false, err
	}
	return res.asBool()
}

func evalMember(target evalResult, member Member, ctx *Context) (evalResult, error) {
	switch m := member.(type) {
	case AttributeMember:
		if target.isFn {
			return evalResult{}, &IllegalTargetError{Target: "attribute access on a function"}
		}
		mp, ok := target.val.(*Map)
		if !ok {
			return evalResult{}, &IllegalTargetError{Target: fmt.Sprintf("attribute access on %s", target.val.Kind())}
		}
		// Absent keys resolve to Null, never an error.
		return valueResult(mp.Get(String(m.Name))), nil

	case CallMember:
		if !target.isFn {
			return evalResult{}, &IllegalTargetError{Target: "call of a non-function"}
		}
		args := make([]Value, 0, len(m.Args))
		for _, arg := range m.Args {
			v, err := evalValue(arg, ctx)
			if err != nil {
				return evalResult{}, err
			}
			args = append(args, v)
		}
		out, err := target.fn(args)
		if err != nil {
			return evalResult{}, err
		}
		return valueResult(out), nil

	case IndexMember:
		if target.isFn {
			return evalResult{}, &IllegalTargetError{Target: "index access on a function"}
		}
		index, err := evalValue(m.Index, ctx)
		if err != nil {
			return evalResult{}, err
		}
		switch t := target.val.(type) {
		case List:
			i, err := indexOf(index)
			if err != nil {
				return evalResult{}, err
			}
			if i < 0 || i >= int64(len(t)) {
				return evalResult{}, fmt.Errorf("cel: list index %d out of range (len %d)", i, len(t))
			}
			return valueResult(t[i]), nil
		case *Map:
			return valueResult(t.Get(index)), nil
		default:
			return evalResult{}, &IllegalTargetError{Target: fmt.Sprintf("index access on %s", target.val.Kind())}
		}

	default:
		return evalResult{}, fmt.Errorf("cel: unexpected member node %T", member)
	}
}

func indexOf(v Value) (int64, error) {
	switch i := v.(type) {
	case Int:
		return int64(i), nil
	case UInt:
		if uint64(i) > math.MaxInt64 {
			return 0, fmt.Errorf("cel: index %du overflows signed integer", uint64(i))
		}
		return int64(i), nil
	default:
		return 0, &BadTypeError{Expected: KindInt, Actual: v.Kind()}
	}
}

// numeric promotion order: Int/UInt promote to Decimal or Double as needed.
func isNumeric(k Kind) bool {
	return k == KindInt || k == KindUInt || k == KindDouble || k == KindDecimal
}

func evalRelation(op RelationOp, left, right Value) (Value, error) {
	if op == OpIn {
		return evalIn(left, right)
	}

	switch op {
	case OpEqual:
		eq, err := valuesEqual(left, right)
		if err != nil {
			return nil, err
		}
		return Bool(eq), nil
	case OpNotEqual:
		eq, err := valuesEqual(left, right)
		if err != nil {
			return nil, err
		}
		return Bool(!eq), nil
	}

	cmp, err := compareValues(op.String(), left, right)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpLess:
		return Bool(cmp < 0), nil
	case OpLessEq:
		return Bool(cmp <= 0), nil
	case OpGreater:
		return Bool(cmp > 0), nil
	case OpGreaterEq:
		return Bool(cmp >= 0), nil
	}
	return nil, fmt.Errorf("cel: unexpected relation operator %v", op)
}

func evalIn(needle, haystack Value) (Value, error) {
	switch h := haystack.(type) {
	case List:
		for _, elem := range h {
			eq, err := valuesEqual(needle, elem)
			if err != nil {
				// Heterogeneous lists: a kind mismatch is just a non-match.
				var mismatch *TypeMismatchError
				if errors.As(err, &mismatch) {
					continue
				}
				return nil, err
			}
			if eq {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case *Map:
		return Bool(h.Has(needle)), nil
	default:
		return nil, &TypeMismatchError{Op: "in", Left: needle.Kind(), Right: haystack.Kind()}
	}
}

func valuesEqual(left, right Value) (bool, error) {
	if isNumeric(left.Kind()) && isNumeric(right.Kind()) {
		cmp, err := compareNumeric(left, right)
		return cmp == 0, err
	}
	if left.Kind() != right.Kind() {
		return false, &TypeMismatchError{Op: "==", Left: left.Kind(), Right: right.Kind()}
	}
	switch l := left.(type) {
	case Null:
		return true, nil
	case Bool:
		return l == right.(Bool), nil
	case String:
		return l == right.(String), nil
	case Bytes:
		return bytes.Equal(l, right.(Bytes)), nil
	case Date:
		return l.t.Equal(right.(Date).t), nil
	case UUID:
		return l == right.(UUID), nil
	case List:
		r := right.(List)
		if len(l) != len(r) {
			return false, nil
		}
		for i := range l {
			eq, err := valuesEqual(l[i], r[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *Map:
		r := right.(*Map)
		if l.Len() != r.Len() {
			return false, nil
		}
		for _, k := range l.Keys() {
			if !r.Has(k) {
				return false, nil
			}
			eq, err := valuesEqual(l.Get(k), r.Get(k))
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	default:
		return false, &TypeMismatchError{Op: "==", Left: left.Kind(), Right: right.Kind()}
	}
}

func compareValues(op string, left, right Value) (int, error) {
	if isNumeric(left.Kind()) && isNumeric(right.Kind()) {
		return compareNumeric(left, right)
	}
	if left.Kind() != right.Kind() {
		return 0, &TypeMismatchError{Op: op, Left: left.Kind(), Right: right.Kind()}
	}
	switch l := left.(type) {
	case String:
		r := right.(String)
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case Bytes:
		return bytes.Compare(l, right.(Bytes)), nil
	case Date:
		r := right.(Date)
		switch {
		case l.t.Before(r.t):
			return -1, nil
		case l.t.After(r.t):
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &TypeMismatchError{Op: op, Left: left.Kind(), Right: right.Kind()}
	}
}

func compareNumeric(left, right Value) (int, error) {
	// Doubles force float comparison; otherwise exact decimal comparison
	// covers Int, UInt and Decimal without precision loss.
	if left.Kind() == KindDouble || right.Kind() == KindDouble {
		l, err := asFloat(left)
		if err != nil {
			return 0, err
		}
		r, err := asFloat(right)
		if err != nil {
			return 0, err
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	}
	l, err := AsDecimal(left)
	if err != nil {
		return 0, err
	}
	r, err := AsDecimal(right)
	if err != nil {
		return 0, err
	}
	return l.Cmp(r), nil
}

func asFloat(v Value) (float64, error) {
	switch n := v.(type) {
	case Int:
		return float64(n), nil
	case UInt:
		return float64(n), nil
	case Double:
		return float64(n), nil
	case Decimal:
		return n.d.InexactFloat64(), nil
	default:
		return 0, &BadTypeError{Expected: KindDouble, Actual: v.Kind()}
	}
}

func evalArithmetic(op ArithmeticOp, left, right Value) (Value, error) {
	// Non-numeric additions: string, bytes and list concatenation.
	if op == OpAdd {
		switch l := left.(type) {
		case String:
			if r, ok := right.(String); ok {
				return l + r, nil
			}
		case Bytes:
			if r, ok := right.(Bytes); ok {
				out := make(Bytes, 0, len(l)+len(r))
				return append(append(out, l...), r...), nil
			}
		case List:
			if r, ok := right.(List); ok {
				out := make(List, 0, len(l)+len(r))
				return append(append(out, l...), r...), nil
			}
		}
	}

	if !isNumeric(left.Kind()) || !isNumeric(right.Kind()) {
		return nil, &TypeMismatchError{Op: op.String(), Left: left.Kind(), Right: right.Kind()}
	}

	if op == OpModulus {
		return evalModulus(left, right)
	}

	if left.Kind() == KindDouble || right.Kind() == KindDouble {
		l, err := asFloat(left)
		if err != nil {
			return nil, err
		}
		r, err := asFloat(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpAdd:
			return Double(l + r), nil
		case OpSubtract:
			return Double(l - r), nil
		case OpMultiply:
			return Double(l * r), nil
		case OpDivide:
			if r == 0 {
				return nil, fmt.Errorf("cel: division by zero")
			}
			return Double(l / r), nil
		}
	}

	if left.Kind() == KindDecimal || right.Kind() == KindDecimal {
		l, err := AsDecimal(left)
		if err != nil {
			return nil, err
		}
		r, err := AsDecimal(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpAdd:
			return NewDecimal(l.Add(r)), nil
		case OpSubtract:
			return NewDecimal(l.Sub(r)), nil
		case OpMultiply:
			return NewDecimal(l.Mul(r)), nil
		case OpDivide:
			if r.IsZero() {
				return nil, fmt.Errorf("cel: division by zero")
			}
			return NewDecimal(l.Div(r)), nil
		}
	}

	if left.Kind() == KindUInt && right.Kind() == KindUInt {
		l, r := uint64(left.(UInt)), uint64(right.(UInt))
		switch op {
		case OpAdd:
			return UInt(l + r), nil
		case OpSubtract:
			if r > l {
				return nil, fmt.Errorf("cel: unsigned subtraction underflow: %du - %du", l, r)
			}
			return UInt(l - r), nil
		case OpMultiply:
			return UInt(l * r), nil
		case OpDivide:
			if r == 0 {
				return nil, fmt.Errorf("cel: division by zero")
			}
			return UInt(l / r), nil
		}
	}

	l, err := intOf(left)
	if err != nil {
		return nil, err
	}
	r, err := intOf(right)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAdd:
		return Int(l + r), nil
	case OpSubtract:
		return Int(l - r), nil
	case OpMultiply:
		return Int(l * r), nil
	case OpDivide:
		if r == 0 {
			return nil, fmt.Errorf("cel: division by zero")
		}
		return Int(l / r), nil
	}
	return nil, fmt.Errorf("cel: unexpected arithmetic operator %v", op)
}

func evalModulus(left, right Value) (Value, error) {
	if left.Kind() == KindUInt && right.Kind() == KindUInt {
		l, r := uint64(left.(UInt)), uint64(right.(UInt))
		if r == 0 {
			return nil, fmt.Errorf("cel: division by zero")
		}
		return UInt(l % r), nil
	}
	l, err := intOf(left)
	if err != nil {
		return nil, err
	}
	r, err := intOf(right)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, fmt.Errorf("cel: division by zero")
	}
	return Int(l % r), nil
}

func intOf(v Value) (int64, error) {
	switch i := v.(type) {
	case Int:
		return int64(i), nil
	case UInt:
		if uint64(i) > math.MaxInt64 {
			return 0, fmt.Errorf("cel: unsigned value %du overflows signed integer", uint64(i))
		}
		return int64(i), nil
	default:
		return 0, &BadTypeError{Expected: KindInt, Actual: v.Kind()}
	}
}

func evalUnary(op UnaryOp, v Value) (Value, error) {
	switch op {
	case OpNot:
		b, err := AsBool(v)
		if err != nil {
			return nil, err
		}
		return Bool(!b), nil
	case OpDoubleNot:
		b, err := AsBool(v)
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case OpMinus:
		switch n := v.(type) {
		case Int:
			return Int(-n), nil
		case Double:
			return Double(-n), nil
		case Decimal:
			return NewDecimal(n.d.Neg()), nil
		default:
			return nil, &BadTypeError{Expected: KindInt, Actual: v.Kind()}
		}
	case OpDoubleMinus:
		switch v.(type) {
		case Int, Double, Decimal:
			return v, nil
		default:
			return nil, &BadTypeError{Expected: KindInt, Actual: v.Kind()}
		}
	}
	return nil, fmt.Errorf("cel: unexpected unary operator %v", op)
}
