package expr

import (
	"errors"
	"sort"
)

// Func is a callable exposed to expressions as name[arg1,arg2].
//
// args holds each argument resolved against the bindings and literal
// table. An argument that resolves to neither is passed as a Bare holding
// its raw text, which lets words such as time units reach the function.
// extra is the expression's additional context, passed through untouched.
//
// Return ErrNotProvided to let the next package try, a *ValidationError
// (see Reject) to reject the arguments, or any other error to fail the
// call. All errors except ErrNotProvided abort the evaluation.
type Func func(args []any, extra any) (any, error)

// Bare is a function argument that matched neither a binding nor a
// literal and is passed exactly as written, e.g. the unit in age[t,days].
// A function that needs a value should treat a Bare argument it cannot
// interpret as an unresolved reference.
type Bare string

// Package is a named namespace of functions.
type Package interface {
	// Name identifies the package. Registration is idempotent per name.
	Name() string

	// Lookup returns the function registered under name.
	Lookup(name string) (Func, bool)
}

// Funcs maps function names to implementations.
type Funcs map[string]Func

// funcPackage is the Package returned by NewPackage.
type funcPackage struct {
	name  string
	funcs Funcs
}

// NewPackage creates a Package from a map of functions.
// The map is copied.
//
// Example:
//
//	disk := expr.NewPackage("disk", expr.Funcs{
//	    "usage": func(args []any, _ any) (any, error) {
//	        return probeUsage(expr.Format(args[0]))
//	    },
//	})
func NewPackage(name string, funcs Funcs) Package {
	copied := make(Funcs, len(funcs))
	for k, v := range funcs {
		copied[k] = v
	}
	return &funcPackage{name: name, funcs: copied}
}

// Name implements Package.
func (p *funcPackage) Name() string {
	return p.name
}

// Lookup implements Package.
func (p *funcPackage) Lookup(name string) (Func, bool) {
	fn, ok := p.funcs[name]
	return fn, ok
}

// FuncNames returns the sorted function names of a package created with
// NewPackage, or nil for other implementations.
func FuncNames(p Package) []string {
	fp, ok := p.(*funcPackage)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(fp.funcs))
	for name := range fp.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// packageList is an ordered, de-duplicated list of packages.
type packageList []Package

// with returns a new list with pkgs appended, skipping nil packages and
// names already present. The receiver is never modified.
func (l packageList) with(pkgs ...Package) packageList {
	out := make(packageList, len(l), len(l)+len(pkgs))
	copy(out, l)
	for _, pkg := range pkgs {
		if pkg == nil || out.has(pkg.Name()) {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

func (l packageList) has(name string) bool {
	for _, pkg := range l {
		if pkg.Name() == name {
			return true
		}
	}
	return false
}

func (l packageList) names() []string {
	names := make([]string, len(l))
	for i, pkg := range l {
		names[i] = pkg.Name()
	}
	return names
}

// call dispatches to the first package that provides name.
func (l packageList) call(name string, args []any, extra any) (any, error) {
	for _, pkg := range l {
		fn, ok := pkg.Lookup(name)
		if !ok || fn == nil {
			continue
		}

		v, err := fn(args, extra)
		if errors.Is(err, ErrNotProvided) {
			continue
		}
		if err != nil {
			return nil, &CallError{Func: name, Package: pkg.Name(), Err: err}
		}

		v, err = normalize(v)
		if err != nil {
			return nil, &CallError{Func: name, Package: pkg.Name(), Err: err}
		}
		return v, nil
	}
	return nil, &CallError{Func: name, Err: ErrFunctionNotFound}
}
