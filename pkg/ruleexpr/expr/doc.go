/*
Package expr compiles and evaluates rule condition expressions.

# Overview

An expression is compiled once from source text and evaluated many times
against different variable bindings. Compilation extracts quoted string
literals, lexes the remaining text into tokens and reorders them into
postfix form. Evaluation walks the postfix form with an operand stack.

# Expression Syntax

	<expr>  := <expr> <op> <expr>
	         | 'not' <expr>
	         | '(' <expr> ')'
	         | <operand>
	<operand> := integer | 'true' | 'false' | "string" | name | call
	<call>  := name '[' [ arg { ',' arg } ] ']'

Integers are unsigned decimal digits. There are no fractional or signed
numeric literals: 3.5 lexes as a name and -3 lexes as the operator '-'
followed by 3. Bind such values instead.

# Operators

Precedence 3 (binds tighter):

	=  !=  <  >  <=  >=    equality and ordering
	contains  icontains    substring test, icontains ignores case
	*  /                   multiplication, non-truncating division

Precedence 2:

	and  or  not           boolean connectives
	+  -                   addition (or string concatenation), subtraction

All operators are left-associative. Comparisons bind tighter than '+' and
'-', so a+3<b groups as a+(3<b): parenthesise arithmetic operands, as in
(a+3)<b. Within a level evaluation runs left to right, so a>b*2 groups as
(a>b)*2. Connectives share a level with '+' and '-' and chain strictly left
to right. A 'not' after another precedence-2 operator must be
parenthesised: write a and (not b). Both operands of 'and' and 'or' are
always evaluated.

# Values

Results and bindings are bool, int64, float64 or string. Binding values of
other Go integer and float types are converted. Integer arithmetic stays
integer except '/', which always yields float64.

# Names and Literals

A name resolves to its binding. Quoted strings are extracted before
lexing, so operator characters inside quotes are plain text:

	msg contains "a=b (c)"

An unknown name fails evaluation with ErrUnresolvedReference.

# Function Calls

A call such as length[name] is dispatched through the registered packages
in order, starting with the built-in package. Arguments resolve like names,
except that an unknown name is passed as a Bare word instead of failing:

	age[created,days] > 30

Packages are plain values:

	disk := expr.NewPackage("disk", expr.Funcs{
	    "usage": func(args []any, extra any) (any, error) {
	        if len(args) != 1 {
	            return nil, expr.Reject("usage takes a path")
	        }
	        return probeUsage(expr.Format(args[0]))
	    },
	})

	e, err := expr.New(`usage["/var"] > 90`).Register(disk).Compile()

A package that does not know a name is skipped. A function may also return
ErrNotProvided to defer to the next package. Any other error, including a
*ValidationError built with Reject, aborts the evaluation.

# Lifecycle

Builder collects packages and the additional context; Compile produces an
immutable Expression. Register and WithAdditionalContext on an Expression
return new values, so a shared Expression is safe for concurrent Evaluate.
*/
package expr
