package expr

// toPostfix reorders infix tokens into evaluation order using the
// shunting-yard algorithm.
//
// Operators are left-associative: an incoming operator first emits every
// stacked operator of greater or equal precedence. The parser does not
// validate structure. Unbalanced parentheses or missing operands surface
// when the postfix form is evaluated.
func toPostfix(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	var stack []Token

	pop := func() Token {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case KindAttribute, KindValue, KindFunction:
			out = append(out, tok)

		case KindParen:
			if tok.Text == "(" {
				stack = append(stack, tok)
				continue
			}
			for len(stack) > 0 {
				top := pop()
				if top.Kind == KindParen {
					break
				}
				out = append(out, top)
			}

		case KindOperator:
			prec := precedence(tok)
			for len(stack) > 0 && precedence(stack[len(stack)-1]) >= prec {
				out = append(out, pop())
			}
			stack = append(stack, tok)
		}
	}

	for len(stack) > 0 {
		out = append(out, pop())
	}
	return out
}
