package ruleexpr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/expr"
)

// Compile validates the rule set and creates a CompiledRuleSet.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks:
//  1. At least one rule exists
//  2. Rule names are non-empty, contain no whitespace and are unique
//  3. Expressions are non-empty and compile
//  4. Every OnPass/OnFail action was added with AddAction
//
// Actions that no rule references are logged as warnings
// but do not cause compilation to fail.
func (rs *RuleSet) Compile() (*CompiledRuleSet, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	logger := rs.logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error

	// 1. Rules
	if len(rs.rules) == 0 {
		errs = append(errs, ErrNoRules)
	}

	seen := make(map[string]bool, len(rs.rules))
	compiled := make([]*compiledRule, 0, len(rs.rules))

	for i, rule := range rs.rules {
		// 2. Names
		switch {
		case rule.Name == "":
			errs = append(errs, fmt.Errorf("%w: rule %d has no name", ErrInvalidRuleName, i))
			continue
		case strings.ContainsAny(rule.Name, " \t\n\r"):
			errs = append(errs, fmt.Errorf("%w: %q contains whitespace", ErrInvalidRuleName, rule.Name))
			continue
		case seen[rule.Name]:
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Name))
			continue
		}
		seen[rule.Name] = true

		// 3. Expressions
		if strings.TrimSpace(rule.Expression) == "" {
			errs = append(errs, &RuleError{Rule: rule.Name, Op: "compile", Err: ErrEmptyExpression})
			continue
		}
		e, err := expr.New(rule.Expression,
			expr.WithLogger(logger.With(slog.String("rule", rule.Name))),
			expr.WithPackages(rs.packages...),
		).Compile()
		if err != nil {
			errs = append(errs, &RuleError{Rule: rule.Name, Op: "compile", Err: err})
			continue
		}

		// 4. Actions
		for _, action := range rule.actionNames() {
			if !rs.actions.Has(action) {
				errs = append(errs, fmt.Errorf("%w: rule %s references %s", ErrUnknownAction, rule.Name, action))
			}
		}

		compiled = append(compiled, &compiledRule{Rule: rule.clone(), expression: e})
	}

	rs.warnUnreferencedActions(logger)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return rs.buildCompiledRuleSet(compiled), nil
}

// warnUnreferencedActions logs warnings for actions no rule names.
func (rs *RuleSet) warnUnreferencedActions(logger *slog.Logger) {
	referenced := make(map[string]bool)
	for _, rule := range rs.rules {
		for _, action := range rule.actionNames() {
			referenced[action] = true
		}
	}

	for _, name := range rs.actions.Keys() {
		if !referenced[name] {
			logger.Warn("action is never referenced", "action", name)
		}
	}
}

// buildCompiledRuleSet creates the immutable CompiledRuleSet from the builder state.
func (rs *RuleSet) buildCompiledRuleSet(rules []*compiledRule) *CompiledRuleSet {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.Name] = i
	}

	return &CompiledRuleSet{
		rules:   rules,
		index:   index,
		actions: rs.actions.Clone(),
	}
}

// actionNames returns OnPass then OnFail.
func (r Rule) actionNames() []string {
	names := make([]string, 0, len(r.OnPass)+len(r.OnFail))
	names = append(names, r.OnPass...)
	return append(names, r.OnFail...)
}

// clone deep-copies the slices and map so later builder changes cannot
// reach the compiled rule.
func (r Rule) clone() Rule {
	c := r
	c.OnPass = append([]string(nil), r.OnPass...)
	c.OnFail = append([]string(nil), r.OnFail...)
	if r.Labels != nil {
		c.Labels = make(map[string]string, len(r.Labels))
		for k, v := range r.Labels {
			c.Labels[k] = v
		}
	}
	return c
}
