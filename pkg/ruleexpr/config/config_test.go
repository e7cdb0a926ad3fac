package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/ruleexpr/pkg/ruleexpr/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := config.New(nil)
	assert.Equal(t, "d", cfg.String("k", "d"))
	_, ok := cfg.List("rules")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"history": "checks.db"}, "checks.db"},
		{"key missing", map[string]any{}, "default"},
		{"empty string", map[string]any{"history": ""}, ""},
		{"wrong type", map[string]any{"history": 123}, "default"},
		{"nil map", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("history", "default"))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string duration", "500ms", 500 * time.Millisecond},
		{"complex string", "1h30m", 90 * time.Minute},
		{"int seconds", 2, 2 * time.Second},
		{"int64 seconds", int64(3), 3 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration value", 7 * time.Second, 7 * time.Second},
		{"invalid string", "soon", time.Minute},
		{"wrong type", true, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"timeout": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("timeout", time.Minute))
		})
	}

	assert.Equal(t, time.Minute, config.New(nil).Duration("timeout", time.Minute))
}

func TestScalars(t *testing.T) {
	cfg := config.New(map[string]any{
		"metrics":  true,
		"workers":  4,
		"big":      int64(1) << 40,
		"whole":    3.0,
		"fraction": 3.5,
		"name":     "x",
	})

	assert.True(t, cfg.Bool("metrics", false))
	assert.False(t, cfg.Bool("name", false))
	assert.Equal(t, 4, cfg.Int("workers", 0))
	assert.Equal(t, 1<<40, cfg.Int("big", 0))
	assert.Equal(t, 3, cfg.Int("whole", 0))
	assert.Equal(t, -1, cfg.Int("fraction", -1))
	assert.Equal(t, -1, cfg.Int("name", -1))
	assert.Equal(t, -1, cfg.Int("missing", -1))
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want []string
	}{
		{"string slice", []string{"page", "ticket"}, []string{"page", "ticket"}},
		{"any slice", []any{"page", "ticket"}, []string{"page", "ticket"}},
		{"mixed slice", []any{"page", 1}, []string{"default"}},
		{"empty any slice", []any{}, []string{}},
		{"wrong type", "page", []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"on_fail": tt.val})
			assert.Equal(t, tt.want, cfg.StringSlice("on_fail", []string{"default"}))
		})
	}
}

func TestNested(t *testing.T) {
	cfg := config.New(map[string]any{
		"labels":   map[string]any{"team": "storage", "tier": 1, "paged": true},
		"bad":      map[string]any{"nested": []any{"x"}},
		"bindings": map[string]any{"limit": 90},
		"rules":    []any{map[string]any{"name": "a"}, "skipped", map[string]any{"name": "b"}},
		"scalar":   5,
	})

	t.Run("string map renders scalars", func(t *testing.T) {
		assert.Equal(t, map[string]string{"team": "storage", "tier": "1", "paged": "true"},
			cfg.StringMap("labels", nil))
	})

	t.Run("string map rejects collections", func(t *testing.T) {
		assert.Nil(t, cfg.StringMap("bad", nil))
		assert.Nil(t, cfg.StringMap("scalar", nil))
	})

	t.Run("map", func(t *testing.T) {
		m, ok := cfg.Map("bindings")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"limit": 90}, m)

		_, ok = cfg.Map("missing")
		assert.False(t, ok)
		_, ok = cfg.Map("scalar")
		assert.False(t, ok)
	})

	t.Run("list skips non-maps", func(t *testing.T) {
		items, ok := cfg.List("rules")
		require.True(t, ok)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].String("name", ""))
		assert.Equal(t, "b", items[1].String("name", ""))

		_, ok = cfg.List("scalar")
		assert.False(t, ok)
		_, ok = cfg.List("missing")
		assert.False(t, ok)
	})
}

func TestFromYAML(t *testing.T) {
	t.Run("valid yaml", func(t *testing.T) {
		cfg, err := config.FromYAML([]byte("timeout: 2s\nmetrics: true\nlabels:\n  team: storage\n"))
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, cfg.Duration("timeout", 0))
		assert.True(t, cfg.Bool("metrics", false))
		assert.Equal(t, map[string]string{"team": "storage"}, cfg.StringMap("labels", nil))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := config.FromYAML([]byte("rules: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse yaml")
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := config.FromYAML(nil)
		assert.ErrorIs(t, err, config.ErrEmptyDocument)

		_, err = config.FromYAML([]byte("# only a comment\n"))
		assert.ErrorIs(t, err, config.ErrEmptyDocument)
	})

	t.Run("top level list", func(t *testing.T) {
		_, err := config.FromYAML([]byte("- name: a\n  expression: x > 1\n"))
		assert.ErrorIs(t, err, config.ErrNotMapping)
	})

	t.Run("top level scalar", func(t *testing.T) {
		_, err := config.FromYAML([]byte("rules\n"))
		assert.ErrorIs(t, err, config.ErrNotMapping)
	})
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"timeout": 1.5, "rules": [{"name": "a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Duration("timeout", 0))

	_, err = config.FromJSON([]byte(`{"timeout":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")

	for _, empty := range []string{"", "  \n", "null"} {
		_, err = config.FromJSON([]byte(empty))
		assert.ErrorIs(t, err, config.ErrEmptyDocument, "%q", empty)
	}

	_, err = config.FromJSON([]byte(`[{"name": "a"}]`))
	assert.ErrorIs(t, err, config.ErrNotMapping)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("yaml extension", func(t *testing.T) {
		cfg, err := config.FromFile(write("rules.yaml", "history: checks.db\n"))
		require.NoError(t, err)
		assert.Equal(t, "checks.db", cfg.String("history", ""))
	})

	t.Run("upper case extension", func(t *testing.T) {
		cfg, err := config.FromFile(write("rules.YML", "history: checks.db\n"))
		require.NoError(t, err)
		assert.Equal(t, "checks.db", cfg.String("history", ""))
	})

	t.Run("json extension", func(t *testing.T) {
		cfg, err := config.FromFile(write("rules.json", `{"history": "checks.db"}`))
		require.NoError(t, err)
		assert.Equal(t, "checks.db", cfg.String("history", ""))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := write("rules.toml", "history = 1")
		_, err := config.FromFile(path)
		assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("decode errors name the path", func(t *testing.T) {
		path := write("empty.yaml", "")
		_, err := config.FromFile(path)
		assert.ErrorIs(t, err, config.ErrEmptyDocument)
		assert.Contains(t, err.Error(), path)

		path = write("broken.json", `{"rules": [`)
		_, err = config.FromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
