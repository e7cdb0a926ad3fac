package ruleexpr

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/event"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/expr"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/history"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/observability"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/retry"
	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/template"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// messages expands rule messages and labels. Values render the way the
// expression language prints them, and unknown names stay visible.
var messages = template.NewExpander(template.WithFormatter(expr.Format))

// Check evaluates every rule against bindings and returns one result per
// rule, in rule order.
//
// A rule that cannot be evaluated is indeterminate; its error is in
// Result.Err and never fails the check. The returned error joins action
// errors, fatal history errors and context cancellation. Results are
// returned even when the error is non-nil.
//
// Rules are evaluated concurrently (see WithMaxConcurrency), so registered
// functions and actions must be safe for concurrent use.
//
// Example:
//
//	ctx := ruleexpr.NewContext(context.Background())
//	results, err := compiled.Check(ctx, map[string]any{"usage": 93})
func (cs *CompiledRuleSet) Check(ctx Context, bindings map[string]any, opts ...CheckOption) (results []Result, checkErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultCheckConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cs.check(ctx, cs.rules, bindings, &cfg)
}

// CheckRule evaluates a single rule. It behaves like Check with a rule set
// of one.
func (cs *CompiledRuleSet) CheckRule(ctx Context, name string, bindings map[string]any, opts ...CheckOption) (Result, error) {
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	rule, exists := cs.getRule(name)
	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}

	cfg := defaultCheckConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	results, err := cs.check(ctx, []*compiledRule{rule}, bindings, &cfg)
	return results[0], err
}

// check runs rules with check-level observability.
func (cs *CompiledRuleSet) check(ctx Context, rules []*compiledRule, bindings map[string]any, cfg *checkConfig) (results []Result, checkErr error) {
	runID := ctx.RunID()
	startTime := time.Now()

	observability.LogCheckStart(cfg.logger, runID, len(rules))

	var checkCtx context.Context = ctx
	var checkSpan trace.Span
	if cfg.tracingEnabled {
		checkCtx, checkSpan = cfg.spans.StartCheckSpan(ctx, runID, len(rules))
		defer func() {
			cfg.spans.EndSpanWithError(checkSpan, checkErr)
		}()
	}

	merged := mergeBindings(cfg.bindings, bindings)

	results = make([]Result, len(rules))
	errs := make([][]error, len(rules))

	// Set up concurrency control
	var sem chan struct{}
	if cfg.maxConcurrency > 0 {
		sem = make(chan struct{}, cfg.maxConcurrency)
	}

	var wg sync.WaitGroup
	for i, rule := range rules {
		wg.Add(1)
		go func(i int, rule *compiledRule) {
			defer wg.Done()

			// Acquire semaphore if concurrency is limited
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[i] = cs.cancelledResult(ctx, rule)
					return
				}
			}

			results[i], errs[i] = cs.checkOne(checkCtx, ctx, rule, merged, cfg)
		}(i, rule)
	}
	wg.Wait()

	var all []error
	for _, e := range errs {
		all = append(all, e...)
	}
	if err := ctx.Err(); err != nil {
		all = append(all, err)
	}
	checkErr = errors.Join(all...)

	duration := time.Since(startTime)
	durationMs := float64(duration.Microseconds()) / 1000.0

	cfg.metrics.RecordCheck(ctx, len(rules), checkErr == nil, duration)

	if checkErr != nil {
		observability.LogCheckError(cfg.logger, runID, checkErr, durationMs)
	} else {
		passed, failed, indeterminate := tally(results)
		observability.LogCheckComplete(cfg.logger, runID, durationMs, passed, failed, indeterminate)
	}

	return results, checkErr
}

// checkOne evaluates a rule and handles everything that follows from its
// outcome. tracingCtx carries the check span; ctx is the caller's Context.
// The returned errors are action errors and fatal history errors.
func (cs *CompiledRuleSet) checkOne(tracingCtx context.Context, ctx Context, rule *compiledRule, bindings map[string]any, cfg *checkConfig) (Result, []error) {
	// Check for cancellation before evaluating
	select {
	case <-ctx.Done():
		return cs.cancelledResult(ctx, rule), nil
	default:
	}

	ruleTracingCtx := tracingCtx
	var ruleSpan trace.Span
	if cfg.tracingEnabled {
		ruleTracingCtx, ruleSpan = cfg.spans.StartRuleSpan(tracingCtx, rule.Name, rule.Expression)
	}

	timeout := rule.Timeout
	if timeout <= 0 {
		timeout = cfg.timeout
	}
	evalCtx := ruleTracingCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ruleTracingCtx, timeout)
		defer cancel()
	}
	ruleCtx := withRule(ctx, evalCtx, rule.Name)

	observability.LogRuleStart(ruleCtx.Logger())
	start := time.Now()

	value, evalErr := evaluate(ruleCtx, ctx, rule, bindings, timeout)

	res := Result{
		ID:       uuid.New().String(),
		RunID:    ctx.RunID(),
		Rule:     rule.Name,
		Duration: time.Since(start),
	}
	switch {
	case evalErr != nil:
		res.Outcome = OutcomeIndeterminate
		res.Err = evalErr
	case expr.IsTruthy(value):
		res.Outcome = OutcomePass
		res.Value = value
	default:
		res.Outcome = OutcomeFail
		res.Value = value
	}
	durationMs := float64(res.Duration.Microseconds()) / 1000.0

	cfg.metrics.RecordEvaluation(ruleTracingCtx, rule.Name, res.Outcome.String(), res.Duration, evalErr)
	if evalErr != nil {
		observability.LogRuleError(ruleCtx.Logger(), evalErr, durationMs)
	} else {
		observability.LogRuleOutcome(ruleCtx.Logger(), res.Outcome.String(), value, durationMs)
	}

	vars := messageVars(bindings, rule.Name, res)
	res.Message = messages.MustExpand(rule.Message, vars)
	res.Labels, _ = messages.ExpandLabels(rule.Labels, vars)

	var errs []error
	if cfg.history != nil {
		if err := cs.recordHistory(ruleCtx, cfg, &res); err != nil && cfg.historyFailureFatal {
			errs = append(errs, err)
		}
	}

	if cfg.events != nil {
		publishEvents(ctx, ruleCtx, cfg.events, &res)
	}

	if cfg.tracingEnabled {
		cfg.spans.AddSpanEvent(ruleTracingCtx, "outcome",
			attribute.String("rule.outcome", res.Outcome.String()),
			attribute.Bool("rule.changed", res.Changed),
		)
	}

	// Actions outlive the evaluation timeout; only the caller's ctx bounds them.
	actionCtx := ruleCtx.withParent(ruleTracingCtx)
	errs = append(errs, cs.dispatchActions(actionCtx, rule, &res, cfg)...)

	if cfg.tracingEnabled {
		cfg.spans.EndSpanWithError(ruleSpan, evalErr)
	}

	return res, errs
}

// evaluate runs the expression on its own goroutine so a timeout or
// cancellation can abandon it. Panics are recovered. parent is the
// caller's Context, used to tell the rule timeout from cancellation.
func evaluate(ctx *checkContext, parent Context, rule *compiledRule, bindings map[string]any, timeout time.Duration) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{
					Rule:  rule.Name,
					Value: r,
					Stack: string(debug.Stack()),
				}}
			}
		}()

		v, err := rule.expression.WithAdditionalContext(Context(ctx)).Evaluate(bindings)
		if err != nil {
			err = &RuleError{Rule: rule.Name, Op: "evaluate", Err: err}
		}
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		// A failure after the deadline is blamed on the deadline
		if o.err != nil && ctx.Err() != nil {
			return nil, interrupted(ctx, parent, rule.Name, timeout)
		}
		return o.value, o.err
	case <-ctx.Done():
		return nil, interrupted(ctx, parent, rule.Name, timeout)
	}
}

// interrupted builds the error for an evaluation whose context ended.
func interrupted(ctx, parent Context, rule string, timeout time.Duration) error {
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &RuleError{
			Rule: rule,
			Op:   "evaluate",
			Err:  fmt.Errorf("%w after %s", ErrRuleTimeout, timeout),
		}
	}
	return &CancellationError{Rule: rule, Cause: ctx.Err(), WasEvaluating: true}
}

// recordHistory compares the result with the rule's previous record and
// saves it. Errors are logged; the returned error is for fatal mode.
func (cs *CompiledRuleSet) recordHistory(ctx Context, cfg *checkConfig, res *Result) error {
	prev, found, err := history.Previous(cfg.history, res.Rule)
	if err != nil {
		observability.LogHistoryError(ctx.Logger(), "load", err)
		return &HistoryError{Rule: res.Rule, Op: "load", Err: err}
	}
	if found {
		res.Previous = ParseOutcome(prev.Outcome)
		res.HasPrevious = true
		res.Changed = res.Previous != res.Outcome
		if res.Changed {
			observability.LogOutcomeChanged(ctx.Logger(), prev.Outcome, res.Outcome.String())
		}
	}

	rec := history.NewRecord(res.RunID, res.Rule, res.Outcome.String()).
		WithValue(res.Value).
		WithError(res.Err).
		WithMessage(res.Message)
	rec.ID = res.ID

	if err := cfg.history.Save(rec); err != nil {
		observability.LogHistoryError(ctx.Logger(), "save", err)
		return &HistoryError{Rule: res.Rule, Op: "save", Err: err}
	}
	return nil
}

// publishEvents sends the outcome event, and the change event when the
// outcome changed. ctx is the caller's Context so a rule timeout does not
// cut publishing short.
func publishEvents(ctx Context, ruleCtx *checkContext, bus event.Bus, res *Result) {
	outcome := res.Outcome.String()
	types := []string{event.TypeFor(outcome)}
	if res.Changed {
		types = append(types, event.TypeChanged)
	}

	for _, typ := range types {
		evt := event.New(typ, res.RunID, res.Rule, outcome)
		evt.Value = res.Value
		evt.Message = res.Message
		evt.Labels = res.Labels
		if res.Err != nil {
			evt.Error = res.Err.Error()
		}
		if res.HasPrevious {
			evt.Previous = res.Previous.String()
		}

		if err := bus.Publish(ctx, evt); err != nil {
			observability.LogPublishError(ruleCtx.Logger(), typ, err)
		}
	}
}

// dispatchActions runs the actions for the result's outcome in order.
// Every action runs even if an earlier one fails.
func (cs *CompiledRuleSet) dispatchActions(ctx Context, rule *compiledRule, res *Result, cfg *checkConfig) []error {
	var names []string
	switch res.Outcome {
	case OutcomePass:
		names = rule.OnPass
	case OutcomeFail:
		names = rule.OnFail
	default:
		return nil
	}

	var errs []error
	for _, name := range names {
		fn, exists := cs.getAction(name)
		if !exists {
			// Compile rejects unknown actions
			continue
		}

		snapshot := *res
		attempt := retry.Do(ctx, cfg.actionRetry, func(context.Context) error {
			return runAction(ctx, fn, snapshot)
		})
		err := attempt.Err
		res.Actions = append(res.Actions, name)
		cfg.metrics.RecordAction(ctx, name, err)

		if err != nil {
			observability.LogActionError(ctx.Logger(), name, attempt.Attempts, err)
			errs = append(errs, &ActionError{Rule: rule.Name, Action: name, Err: err, Attempts: attempt.Attempts})
		}
	}
	return errs
}

// runAction calls fn with panic recovery.
func runAction(ctx Context, fn ActionFunc, res Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Rule:  res.Rule,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()
	return fn(ctx, res)
}

// cancelledResult is the result of a rule skipped because ctx ended.
func (cs *CompiledRuleSet) cancelledResult(ctx Context, rule *compiledRule) Result {
	return Result{
		ID:      uuid.New().String(),
		RunID:   ctx.RunID(),
		Rule:    rule.Name,
		Outcome: OutcomeIndeterminate,
		Err:     &CancellationError{Rule: rule.Name, Cause: ctx.Err()},
	}
}

// mergeBindings layers over on top of base without modifying either.
func mergeBindings(base, over map[string]any) map[string]any {
	if len(base) == 0 {
		return over
	}
	merged := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

// messageVars returns the variables a rule message can reference.
func messageVars(bindings map[string]any, rule string, res Result) map[string]any {
	vars := make(map[string]any, len(bindings)+3)
	for k, v := range bindings {
		vars[k] = v
	}
	vars["rule"] = rule
	vars["outcome"] = res.Outcome.String()
	if res.Err != nil {
		vars["value"] = res.Err.Error()
	} else {
		vars["value"] = res.Value
	}
	return vars
}

// tally counts results by outcome.
func tally(results []Result) (passed, failed, indeterminate int) {
	for _, r := range results {
		switch r.Outcome {
		case OutcomePass:
			passed++
		case OutcomeFail:
			failed++
		default:
			indeterminate++
		}
	}
	return passed, failed, indeterminate
}
