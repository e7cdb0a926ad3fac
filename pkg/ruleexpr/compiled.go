package ruleexpr

import (
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/expr"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/registry"
)

// CompiledRuleSet is an immutable, checkable rule set.
// It is created by calling Compile() on a RuleSet builder.
//
// CompiledRuleSet is thread-safe and can be used concurrently for multiple
// Check() calls.
type CompiledRuleSet struct {
	rules   []*compiledRule
	index   map[string]int
	actions *registry.Registry[string, ActionFunc]
}

// compiledRule pairs a rule with its compiled expression.
type compiledRule struct {
	Rule
	expression *expr.Expression
}

// RuleNames returns the rule names in check order.
func (cs *CompiledRuleSet) RuleNames() []string {
	names := make([]string, len(cs.rules))
	for i, r := range cs.rules {
		names[i] = r.Name
	}
	return names
}

// Len returns the number of rules.
func (cs *CompiledRuleSet) Len() int {
	return len(cs.rules)
}

// ActionNames returns the action names in the order they were added.
func (cs *CompiledRuleSet) ActionNames() []string {
	return cs.actions.Keys()
}

// HasRule checks if a rule exists in the set.
func (cs *CompiledRuleSet) HasRule(name string) bool {
	_, exists := cs.index[name]
	return exists
}

// Rule returns a copy of the named rule.
func (cs *CompiledRuleSet) Rule(name string) (Rule, bool) {
	r, exists := cs.getRule(name)
	if !exists {
		return Rule{}, false
	}
	return r.clone(), true
}

// Expression returns the compiled expression of the named rule, for
// inspecting its postfix form.
func (cs *CompiledRuleSet) Expression(name string) (*expr.Expression, bool) {
	r, exists := cs.getRule(name)
	if !exists {
		return nil, false
	}
	return r.expression, true
}

// getRule returns the compiled rule for the given name.
func (cs *CompiledRuleSet) getRule(name string) (*compiledRule, bool) {
	i, exists := cs.index[name]
	if !exists {
		return nil, false
	}
	return cs.rules[i], true
}

// getAction returns the action function for the given name.
func (cs *CompiledRuleSet) getAction(name string) (ActionFunc, bool) {
	return cs.actions.Get(name)
}
