package config

import (
	"fmt"
	"time"
)

// Config is a decoded rule file document. Accessors fall back to the
// given default when a key is absent or holds a value of the wrong shape,
// so a sparse rule file reads as its defaults.
type Config struct {
	data map[string]any
}

// New wraps a decoded document. A nil map reads as empty.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// value returns the entry at key when it has type T.
func value[T any](c Config, key string) (T, bool) {
	v, ok := c.data[key].(T)
	return v, ok
}

// String returns a string entry.
func (c Config) String(key, defaultVal string) string {
	if s, ok := value[string](c, key); ok {
		return s
	}
	return defaultVal
}

// Bool returns a boolean entry.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := value[bool](c, key); ok {
		return b
	}
	return defaultVal
}

// Duration returns a duration entry. Strings use time.ParseDuration
// ("500ms", "2s"); bare numbers are seconds, which is what JSON files and
// YAML integers produce.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return defaultVal
}

// Int returns an integer entry. JSON numbers decode as float64 and are
// accepted when whole.
func (c Config) Int(key string, defaultVal int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// StringSlice returns a list of strings such as an action list. A list
// holding anything but strings yields defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch v := c.data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out[i] = s
		}
		return out
	}
	return defaultVal
}

// Map returns a nested mapping with string keys.
func (c Config) Map(key string) (map[string]any, bool) {
	return value[map[string]any](c, key)
}

// StringMap returns a nested mapping of scalars rendered as strings, as
// used for rule labels. Nested collections yield defaultVal.
func (c Config) StringMap(key string, defaultVal map[string]string) map[string]string {
	m, ok := c.Map(key)
	if !ok {
		return defaultVal
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, int, int64, float64, bool:
			out[k] = fmt.Sprint(v)
		default:
			return defaultVal
		}
	}
	return out
}

// List returns the mappings in a sequence, such as the rules list.
// Entries that are not mappings are skipped. ok is false when the key is
// absent or not a sequence.
func (c Config) List(key string) (items []Config, ok bool) {
	seq, ok := value[[]any](c, key)
	if !ok {
		return nil, false
	}
	items = make([]Config, 0, len(seq))
	for _, entry := range seq {
		if m, isMap := entry.(map[string]any); isMap {
			items = append(items, New(m))
		}
	}
	return items, true
}
