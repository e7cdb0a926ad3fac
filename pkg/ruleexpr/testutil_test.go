package ruleexpr

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background(), WithLogger(slog.New(slog.NewTextHandler(discard{}, nil))))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// mustCompile compiles rules or fails the test.
func mustCompile(t *testing.T, rs *RuleSet) *CompiledRuleSet {
	t.Helper()
	compiled, err := rs.Compile()
	require.NoError(t, err)
	return compiled
}

// actionRecorder records action calls. Safe for concurrent use.
type actionRecorder struct {
	mu    sync.Mutex
	calls []string
}

// action returns an ActionFunc that records "<name>:<rule>" and returns err.
func (r *actionRecorder) action(name string, err error) ActionFunc {
	return func(ctx Context, res Result) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name+":"+res.Rule)
		return err
	}
}

func (r *actionRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// resultFor returns the result of the named rule.
func resultFor(t *testing.T, results []Result, rule string) Result {
	t.Helper()
	for _, r := range results {
		if r.Rule == rule {
			return r
		}
	}
	t.Fatalf("no result for rule %s", rule)
	return Result{}
}

// testLogHandler captures log records for testing, attributes added
// with With included. Safe for concurrent use.
type testLogHandler struct {
	mu    *sync.Mutex
	buf   *bytes.Buffer
	attrs []slog.Attr
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{
		mu:  &sync.Mutex{},
		buf: &bytes.Buffer{},
	}
}

func (h *testLogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &testLogHandler{
		mu:    h.mu,
		buf:   h.buf,
		attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *testLogHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *testLogHandler) getRecords() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) > 0 {
			var m map[string]any
			if err := json.Unmarshal(line, &m); err == nil {
				records = append(records, m)
			}
		}
	}
	return records
}

// withMessage returns the records with the given message.
func withMessage(records []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, r := range records {
		if r["msg"] == msg {
			out = append(out, r)
		}
	}
	return out
}
