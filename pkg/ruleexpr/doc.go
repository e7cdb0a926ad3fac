/*
Package ruleexpr checks named rules written in a small expression language.

# Overview

A rule is a boolean expression such as

	usage > 90 and host icontains "db"

evaluated against a map of bindings. The expression language itself lives
in the expr subpackage and can be embedded on its own. This package adds
what a monitor needs around it: a set of named rules compiled once, checked
concurrently, with messages, actions, outcome history and observability.

# Basic Usage

Build a rule set, compile it, then check it as often as needed:

	rules := ruleexpr.NewRuleSet().
	    AddRule(ruleexpr.Rule{
	        Name:       "disk_full",
	        Expression: "usage > limit",
	        Message:    "${host}: disk at ${usage}%",
	        OnFail:     []string{"page"},
	    }).
	    AddAction("page", func(ctx ruleexpr.Context, r ruleexpr.Result) error {
	        return pager.Send(ctx, r.Message)
	    })

	compiled, err := rules.Compile()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := ruleexpr.NewContext(context.Background())
	results, err := compiled.Check(ctx, map[string]any{
	    "host": "db1", "usage": 93, "limit": 90,
	})

Compile reports every problem at once: duplicate or malformed names, empty
or unparsable expressions and unknown actions.

# Outcomes

A truthy expression result passes the rule and a falsy one fails it. Any
evaluation error, including an unresolved reference, a type mismatch, a
rejected function call, a timeout or a panic, makes the rule
indeterminate. Indeterminate rules carry the error in Result.Err; they do
not fail the check and run no actions.

# Functions

Packages registered with Register are consulted after the built-in
package, in registration order. Every function receives the rule's Context
as its additional context, so it can log with the rule's logger and stop
when the rule times out:

	inventory := expr.NewPackage("inventory", expr.Funcs{
	    "owner": func(args []any, extra any) (any, error) {
	        ctx := extra.(ruleexpr.Context)
	        return lookupOwner(ctx, args)
	    },
	})
	rules.Register(inventory)

# Rule Files

Rules and check settings can come from YAML or JSON:

	rules, settings, err := ruleexpr.LoadRuleSet("rules.yaml")
	compiled, err := rules.AddAction("page", page).Compile()
	opts, closeHistory, err := ruleexpr.OptionsFromSettings(settings)
	defer closeHistory()
	results, err := compiled.Check(ctx, bindings, opts...)

See the config subpackage for the file format.

# History

With a history store every result is recorded, and Result.Changed reports
whether the outcome differs from the rule's previous one:

	store, err := history.NewSQLiteStore("./history.db")
	defer store.Close()

	results, err := compiled.Check(ctx, bindings, ruleexpr.WithHistory(store))
	for _, r := range results {
	    if r.Changed {
	        notify(r)
	    }
	}

History errors are logged and otherwise ignored unless
WithHistoryFailureFatal(true) is set.

# Events

WithEvents publishes every result to an event.Bus, plus a change event
when history shows a new outcome:

	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()
	bus.Subscribe(notifyChange, event.TypeChanged)

	results, err := compiled.Check(ctx, bindings,
	    ruleexpr.WithHistory(store),
	    ruleexpr.WithEvents(bus))

# Action Retries

Actions run once by default. With WithActionRetry, errors marked
retry.Transient are retried with backoff:

	compiled.Check(ctx, bindings, ruleexpr.WithActionRetry(retry.Default))

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := ruleexpr.NewContext(context.Background(), ruleexpr.WithLogger(logger))
	results, err := compiled.Check(ctx, bindings,
	    ruleexpr.WithObservabilityLogger(logger),
	    ruleexpr.WithMetrics(true),
	    ruleexpr.WithTracing(true))

Logs include structured fields: run_id, rule, outcome, duration_ms.
OpenTelemetry metrics: ruleexpr.rule.evaluations, ruleexpr.rule.latency_ms, etc.
OpenTelemetry tracing: ruleexpr.check > ruleexpr.rule.{name} spans.

# Error Handling

Evaluation errors are wrapped with the rule name:

	var ruleErr *ruleexpr.RuleError
	if errors.As(r.Err, &ruleErr) {
	    log.Printf("rule %s: %v", ruleErr.Rule, ruleErr.Err)
	}

	if errors.Is(r.Err, expr.ErrUnresolvedReference) {
	    // a binding is missing
	}

Panics in functions and actions are recovered and converted to PanicError
with stack trace.

# Thread Safety

  - RuleSet is NOT safe for concurrent use during construction
  - CompiledRuleSet IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use
  - history.Store implementations are safe for concurrent use
  - event.LocalBus is safe for concurrent use

# Subpackages

  - expr: The expression language (lexer, parser, evaluator, functions)
  - config: Rule file loading
  - history: Outcome history storage (memory, SQLite)
  - event: Result notifications over an in-process bus
  - retry: Transient error classification and backoff for actions
  - registry: Insertion-ordered registry holding actions
  - template: Message expansion
  - observability: Logging, metrics, and tracing helpers
*/
package ruleexpr
