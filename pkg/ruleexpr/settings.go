package ruleexpr

import (
	"fmt"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/config"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/history"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/retry"
)

// OptionsFromSettings turns rule file settings into check options.
// When the settings name a history database it is opened here; the
// returned close function releases it and is never nil.
//
// Example:
//
//	settings, specs, err := config.LoadRules("rules.yaml")
//	...
//	opts, closeHistory, err := ruleexpr.OptionsFromSettings(settings)
//	if err != nil {
//	    return err
//	}
//	defer closeHistory()
//	results, err := compiled.Check(ctx, bindings, opts...)
func OptionsFromSettings(s config.Settings) ([]CheckOption, func() error, error) {
	opts := []CheckOption{
		WithTimeout(s.Timeout),
		WithMetrics(s.Metrics),
		WithTracing(s.Tracing),
		WithMaxConcurrency(s.MaxConcurrency),
	}
	if len(s.Bindings) > 0 {
		opts = append(opts, WithBindings(s.Bindings))
	}
	if s.ActionRetries > 1 {
		opts = append(opts, WithActionRetry(retry.NewConfig(retry.WithMaxAttempts(s.ActionRetries))))
	}

	if s.History == "" {
		return opts, func() error { return nil }, nil
	}

	store, err := history.NewSQLiteStore(s.History)
	if err != nil {
		return nil, nil, fmt.Errorf("open history %s: %w", s.History, err)
	}
	return append(opts, WithHistory(store)), store.Close, nil
}

// LoadRuleSet reads a rule file into a RuleSet builder and returns the
// file's settings. Add the actions and packages the rules need, then
// compile:
//
//	rules, settings, err := ruleexpr.LoadRuleSet("rules.yaml")
//	...
//	compiled, err := rules.AddAction("page", page).Register(inventory).Compile()
func LoadRuleSet(path string) (*RuleSet, config.Settings, error) {
	settings, specs, err := config.LoadRules(path)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return NewRuleSet().AddSpecs(specs...), settings, nil
}
