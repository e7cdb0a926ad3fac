package expr

import (
	"log/slog"
)

// Builder accumulates the source text, function packages and additional
// context of an expression. Call Compile to produce an immutable
// Expression.
//
// Builder is NOT thread-safe. Use a single goroutine to configure it,
// then share the compiled Expression.
//
// Example:
//
//	e, err := expr.New(`disk[usage,"/"] > limit`).
//	    Register(diskPackage).
//	    SetAdditionalContext(probeEnv).
//	    Compile()
type Builder struct {
	source   string
	packages packageList
	extra    any
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used to report the compiled form at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithPackages registers function packages after the built-in package.
func WithPackages(pkgs ...Package) Option {
	return func(b *Builder) {
		b.packages = b.packages.with(pkgs...)
	}
}

// New creates a Builder for source. The built-in package is always
// registered first.
func New(source string, opts ...Option) *Builder {
	b := &Builder{
		source:   source,
		packages: packageList{Builtin},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register appends packages to the lookup order. Registering a package
// name that is already present is a no-op.
// Returns the builder for method chaining.
func (b *Builder) Register(pkgs ...Package) *Builder {
	b.packages = b.packages.with(pkgs...)
	return b
}

// SetAdditionalContext sets the value passed to every function call.
// It replaces any previous value.
// Returns the builder for method chaining.
func (b *Builder) SetAdditionalContext(v any) *Builder {
	b.extra = v
	return b
}

// Compile lexes and parses the source into an Expression.
// Only lexing can fail; structural problems are reported by Evaluate.
func (b *Builder) Compile() (*Expression, error) {
	tokens, literals, err := lex(b.source)
	if err != nil {
		return nil, err
	}

	e := &Expression{
		source:   b.source,
		postfix:  toPostfix(tokens),
		literals: literals,
		packages: b.packages,
		extra:    b.extra,
	}

	if b.logger != nil {
		b.logger.Debug("expression compiled",
			slog.String("source", e.source),
			slog.String("postfix", e.String()),
			slog.Int("literals", len(e.literals)),
			slog.Any("packages", e.packages.names()),
		)
	}
	return e, nil
}

// Compile is a convenience for New(source).Register(pkgs...).Compile().
func Compile(source string, pkgs ...Package) (*Expression, error) {
	return New(source).Register(pkgs...).Compile()
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, pkgs ...Package) *Expression {
	e, err := Compile(source, pkgs...)
	if err != nil {
		panic("expr: " + err.Error())
	}
	return e
}
