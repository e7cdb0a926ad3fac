package ruleexpr

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/config"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/expr"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/registry"
)

// RuleSet is a mutable builder for a set of rules.
// Use NewRuleSet to create one, then chain AddRule, Register and
// AddAction calls.
//
// RuleSet is NOT thread-safe during building. Use a single goroutine
// to construct it, then call Compile() to create an immutable
// CompiledRuleSet that can be safely shared.
//
// Example:
//
//	rules := ruleexpr.NewRuleSet().
//	    AddRule(ruleexpr.Rule{Name: "disk_full", Expression: "usage > 90", OnFail: []string{"page"}}).
//	    AddAction("page", page)
//
//	compiled, err := rules.Compile()
type RuleSet struct {
	mu       sync.RWMutex
	rules    []Rule
	packages []expr.Package
	actions  *registry.Registry[string, ActionFunc]
	logger   *slog.Logger
}

// NewRuleSet creates a new rule set builder.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		actions: registry.New[string, ActionFunc](),
	}
}

// AddRule appends a rule. Rules are checked, and their results returned,
// in the order they were added.
// Returns the rule set for method chaining.
//
// Rule validation happens at Compile() time, so rules loaded from a file
// report every problem at once.
func (rs *RuleSet) AddRule(rule Rule) *RuleSet {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.rules = append(rs.rules, rule)
	return rs
}

// AddSpecs appends rules decoded from a rule file.
func (rs *RuleSet) AddSpecs(specs ...config.RuleSpec) *RuleSet {
	for _, spec := range specs {
		rs.AddRule(RuleFromSpec(spec))
	}
	return rs
}

// Register appends function packages to every rule's lookup order, after
// the built-in package. Packages are consulted in registration order.
// Returns the rule set for method chaining.
func (rs *RuleSet) Register(pkgs ...expr.Package) *RuleSet {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.packages = append(rs.packages, pkgs...)
	return rs
}

// AddAction adds a named action that rules reference through OnPass and
// OnFail. Returns the rule set for method chaining.
//
// Panics if:
//   - name is empty
//   - fn is nil
//   - name already exists in the set
func (rs *RuleSet) AddAction(name string, fn ActionFunc) *RuleSet {
	if name == "" {
		panic("ruleexpr: action name cannot be empty")
	}

	if fn == nil {
		panic("ruleexpr: action function cannot be nil")
	}

	if err := rs.actions.Add(name, fn); err != nil {
		panic(fmt.Sprintf("ruleexpr: duplicate action: %s", name))
	}
	return rs
}

// SetLogger sets the logger used while compiling. Expressions log their
// postfix form at debug level. Default: slog.Default().
func (rs *RuleSet) SetLogger(logger *slog.Logger) *RuleSet {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.logger = logger
	return rs
}
