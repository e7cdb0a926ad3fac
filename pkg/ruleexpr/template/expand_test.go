package template

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_Patterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]any
		expected string
	}{
		{
			name:     "brace variable",
			input:    "${host} unreachable",
			vars:     map[string]any{"host": "db1"},
			expected: "db1 unreachable",
		},
		{
			name:     "adjacent brace variables",
			input:    "${a}${b}${c}",
			vars:     map[string]any{"a": "1", "b": "2", "c": "3"},
			expected: "123",
		},
		{
			name:     "numeric value",
			input:    "disk at ${usage}%",
			vars:     map[string]any{"usage": int64(93)},
			expected: "disk at 93%",
		},
		{
			name:     "boolean value",
			input:    "result: ${value}",
			vars:     map[string]any{"value": false},
			expected: "result: false",
		},
		{
			name:     "dollar variable followed by punctuation",
			input:    "$host!",
			vars:     map[string]any{"host": "db1"},
			expected: "db1!",
		},
		{
			name:     "dollar word boundary",
			input:    "$port is different from $portNumber",
			vars:     map[string]any{"port": "8080", "portNumber": "9090"},
			expected: "8080 is different from 9090",
		},
		{
			name:     "mixed styles",
			input:    "https://${host}:$port/health",
			vars:     map[string]any{"host": "api.example.com", "port": 8080},
			expected: "https://api.example.com:8080/health",
		},
		{
			name:     "bare dollar is text",
			input:    "costs $5",
			vars:     map[string]any{},
			expected: "costs $5",
		},
		{
			name:     "unclosed brace is text",
			input:    "${host",
			vars:     map[string]any{"host": "db1"},
			expected: "${host",
		},
		{
			name:     "empty input",
			input:    "",
			vars:     map[string]any{"host": "db1"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input, tt.vars))
		})
	}
}

func TestExpand_MissingVariables(t *testing.T) {
	t.Run("MissingKeep keeps placeholders", func(t *testing.T) {
		exp := NewExpander()
		result, err := exp.Expand("${host} and $port", nil)
		require.NoError(t, err)
		assert.Equal(t, "${host} and $port", result)
	})

	t.Run("MissingEmpty removes placeholders", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingEmpty))
		result, err := exp.Expand("[${host}] [$port]", nil)
		require.NoError(t, err)
		assert.Equal(t, "[] []", result)
	})

	t.Run("MissingError reports every name", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingError))
		result, err := exp.Expand("${host}:$port ${found}", map[string]any{"found": "x"})
		require.Error(t, err)
		assert.Equal(t, "${host}:$port x", result)

		var undefErr *UndefinedVariableError
		require.True(t, errors.As(err, &undefErr))
		assert.Equal(t, []string{"host", "port"}, undefErr.Names)
		assert.Equal(t, "undefined variables: host, port", err.Error())
	})

	t.Run("single missing name", func(t *testing.T) {
		err := &UndefinedVariableError{Names: []string{"usage"}}
		assert.Equal(t, "undefined variable: usage", err.Error())
	})
}

func TestExpand_DisabledStyles(t *testing.T) {
	vars := map[string]any{"host": "db1"}

	exp := NewExpander(WithBraceStyle(false))
	result, err := exp.Expand("${host} $host", vars)
	require.NoError(t, err)
	assert.Equal(t, "${host} db1", result)

	exp = NewExpander(WithDollarStyle(false))
	result, err = exp.Expand("${host} $host", vars)
	require.NoError(t, err)
	assert.Equal(t, "db1 $host", result)
}

func TestExpand_Formatter(t *testing.T) {
	exp := NewExpander(WithFormatter(func(v any) string {
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return "?"
	}))

	result, err := exp.Expand("load ${load}, host ${host}", map[string]any{"load": 1.26, "host": "db1"})
	require.NoError(t, err)
	assert.Equal(t, "load 1.3, host ?", result)

	t.Run("nil formatter keeps default", func(t *testing.T) {
		exp := NewExpander(WithFormatter(nil))
		assert.Equal(t, "2.5", exp.MustExpand("${v}", map[string]any{"v": 2.5}))
	})
}

func TestMustExpand(t *testing.T) {
	exp := NewExpander(WithMissingAction(MissingError))

	assert.Equal(t, "db1", exp.MustExpand("${host}", map[string]any{"host": "db1"}))
	assert.Panics(t, func() {
		exp.MustExpand("${host}", nil)
	})
}

func TestExpandAll(t *testing.T) {
	vars := map[string]any{"env": "prod"}

	results, err := NewExpander().ExpandAll([]string{"page-${env}", "ticket-${env}"}, vars)
	require.NoError(t, err)
	assert.Equal(t, []string{"page-prod", "ticket-prod"}, results)

	results, err = NewExpander().ExpandAll(nil, vars)
	require.NoError(t, err)
	assert.Nil(t, results)

	_, err = NewExpander(WithMissingAction(MissingError)).ExpandAll([]string{"${env}", "${zone}"}, vars)
	assert.Error(t, err)
}

func TestExpandLabels(t *testing.T) {
	vars := map[string]any{"hostname": "db1"}

	t.Run("expands values only", func(t *testing.T) {
		labels, err := NewExpander().ExpandLabels(map[string]string{
			"host":    "${hostname}",
			"${team}": "storage",
		}, vars)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"host":    "db1",
			"${team}": "storage",
		}, labels)
	})

	t.Run("input is not modified", func(t *testing.T) {
		in := map[string]string{"host": "${hostname}"}
		_, err := NewExpander().ExpandLabels(in, vars)
		require.NoError(t, err)
		assert.Equal(t, "${hostname}", in["host"])
	})

	t.Run("nil map", func(t *testing.T) {
		labels, err := NewExpander().ExpandLabels(nil, vars)
		require.NoError(t, err)
		assert.Nil(t, labels)
	})

	t.Run("error names the label", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingError))
		_, err := exp.ExpandLabels(map[string]string{"zone": "${zone}"}, vars)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "label zone")

		var undefErr *UndefinedVariableError
		assert.True(t, errors.As(err, &undefErr))
	})
}

func TestNewExpander_Defaults(t *testing.T) {
	exp := NewExpander()

	assert.Equal(t, MissingKeep, exp.missingAction)
	assert.True(t, exp.braceStyle)
	assert.True(t, exp.dollarStyle)
	require.NotNil(t, exp.format)
	assert.Equal(t, "42", exp.format(42))
}
