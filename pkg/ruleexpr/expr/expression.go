package expr

// Expression is a compiled, immutable expression.
// It is created by calling Compile() on a Builder.
//
// Expression is safe for concurrent Evaluate calls. Register and
// WithAdditionalContext return new Expressions and leave the receiver
// untouched.
type Expression struct {
	source   string
	postfix  []Token
	literals []string
	packages packageList
	extra    any
}

// Source returns the text the expression was compiled from.
func (e *Expression) Source() string {
	return e.source
}

// Postfix returns a copy of the tokens in evaluation order.
func (e *Expression) Postfix() []Token {
	out := make([]Token, len(e.postfix))
	copy(out, e.postfix)
	return out
}

// Literals returns a copy of the extracted string literals in source order.
func (e *Expression) Literals() []string {
	out := make([]string, len(e.literals))
	copy(out, e.literals)
	return out
}

// Packages returns the registered package names in lookup order.
func (e *Expression) Packages() []string {
	return e.packages.names()
}

// AdditionalContext returns the value passed to every function call.
func (e *Expression) AdditionalContext() any {
	return e.extra
}

// String returns the postfix form separated by spaces.
func (e *Expression) String() string {
	return joinTokens(e.postfix)
}

// Register returns a copy of the expression with pkgs appended to the
// lookup order. Names already registered are skipped.
func (e *Expression) Register(pkgs ...Package) *Expression {
	c := *e
	c.packages = e.packages.with(pkgs...)
	return &c
}

// WithAdditionalContext returns a copy of the expression that passes v to
// every function call instead of the current value.
func (e *Expression) WithAdditionalContext(v any) *Expression {
	c := *e
	c.extra = v
	return &c
}
