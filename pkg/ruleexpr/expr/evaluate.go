package expr

import (
	"fmt"
)

// Evaluate runs the expression against bindings and returns a bool, int64,
// float64 or string.
//
// Binding values may be any Go integer or float type, bool or string.
// Evaluation is all-or-nothing: the first failure aborts and is returned.
// Both operands of "and" and "or" are always evaluated.
//
// Evaluate never blocks on its own. A registered function that blocks
// stalls the call; wrap it if a timeout is needed.
//
// Example:
//
//	e := expr.MustCompile("a > 3 and b <= 7")
//	ok, err := e.Evaluate(map[string]any{"a": 5, "b": 5}) // true
func (e *Expression) Evaluate(bindings map[string]any) (any, error) {
	stack := make([]any, 0, len(e.postfix))

	for _, tok := range e.postfix {
		switch tok.Kind {
		case KindValue:
			stack = append(stack, tok.Value)

		case KindAttribute:
			v, found, err := e.resolve(tok.Text, tok.Literal, bindings)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, &ReferenceError{Name: tok.Text}
			}
			stack = append(stack, v)

		case KindFunction:
			v, err := e.call(tok.Call, bindings)
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)

		case KindOperator:
			op := operators[tok.Text]
			if len(stack) < op.Arity {
				return nil, &IllFormedError{Token: tok.Text, Depth: len(stack)}
			}
			operands := make([]any, op.Arity)
			copy(operands, stack[len(stack)-op.Arity:])
			stack = stack[:len(stack)-op.Arity]

			v, err := op.Apply(operands...)
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)

		default:
			// An unmatched "(" survives parsing and lands here.
			return nil, &IllFormedError{Token: tok.Text, Depth: len(stack), Unmatched: true}
		}
	}

	if len(stack) != 1 {
		return nil, &IllFormedError{Depth: len(stack)}
	}
	return stack[0], nil
}

// Test evaluates the expression and reports whether the result is truthy.
func (e *Expression) Test(bindings map[string]any) (bool, error) {
	v, err := e.Evaluate(bindings)
	if err != nil {
		return false, err
	}
	return IsTruthy(v), nil
}

// Eval is a convenience function that compiles and evaluates source
// with only the built-in package registered.
func Eval(source string, bindings map[string]any) (any, error) {
	e, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(bindings)
}

// resolve looks a name up in the bindings, then in the literal table.
func (e *Expression) resolve(name string, literal int, bindings map[string]any) (any, bool, error) {
	if literal >= 0 {
		return e.literals[literal], true, nil
	}
	raw, ok := bindings[name]
	if !ok {
		return nil, false, nil
	}
	v, err := normalize(raw)
	if err != nil {
		return nil, false, fmt.Errorf("binding %s: %w", name, err)
	}
	return v, true, nil
}

// call resolves arguments and dispatches through the package list.
// Unresolvable arguments are passed as Bare raw text.
func (e *Expression) call(c *Call, bindings map[string]any) (any, error) {
	args := make([]any, len(c.Args))
	for i, arg := range c.Args {
		v, found, err := e.resolve(arg.Text, arg.Literal, bindings)
		if err != nil {
			return nil, &CallError{Func: c.Name, Err: err}
		}
		if !found {
			v = Bare(arg.Text)
		}
		args[i] = v
	}
	return e.packages.call(c.Name, args, e.extra)
}
