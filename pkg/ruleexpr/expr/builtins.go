package expr

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// BuiltinName is the name of the package registered first in every Builder.
const BuiltinName = "builtin"

// Builtin provides the engine's helper functions:
//
//	length[s]              rune count of a string
//	lower[s] upper[s] trim[s]
//	abs[n]                 absolute value
//	min[a,b,...] max[a,b,...]
//	now[]                  current unix time in seconds
//	age[t,unit]            time elapsed since t, in unit
//	datediff[t1,t2,unit]   t2 minus t1, in unit
//	before[t1,t2]          t1 is earlier than t2
//	after[t1,t2]           t1 is later than t2
//
// Times are unix seconds or strings in RFC 3339, "2006-01-02 15:04:05" or
// "2006-01-02" form. Units are seconds, minutes, hours, days or weeks,
// singular or plural, usually written as bare words.
var Builtin = NewPackage(BuiltinName, Funcs{
	"length":   builtinLength,
	"lower":    stringFunc("lower", strings.ToLower),
	"upper":    stringFunc("upper", strings.ToUpper),
	"trim":     stringFunc("trim", strings.TrimSpace),
	"abs":      builtinAbs,
	"min":      extremum("min", func(c, best float64) bool { return c < best }),
	"max":      extremum("max", func(c, best float64) bool { return c > best }),
	"now":      builtinNow,
	"age":      builtinAge,
	"datediff": builtinDateDiff,
	"before":   timeOrder("before", time.Time.Before),
	"after":    timeOrder("after", time.Time.After),
})

// clock is replaced in tests.
var clock = time.Now

// timeLayouts are tried in order when a time argument is a string.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var units = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
}

func arity(name string, args []any, n int) error {
	if len(args) != n {
		return Reject("%s takes %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

// text returns a string argument. A Bare argument is an unresolved name.
func text(name string, arg any) (string, error) {
	switch v := arg.(type) {
	case string:
		return v, nil
	case Bare:
		return "", &ReferenceError{Name: string(v)}
	default:
		return "", Reject("%s expects a string, got %T", name, arg)
	}
}

// number returns an int64 or float64 argument. Numeric strings and numeric
// bare words such as the 10 in max[a,10] are parsed.
func number(name string, arg any) (any, error) {
	switch v := arg.(type) {
	case int64, float64:
		return v, nil
	case string:
		if n, ok := parseNumber(v); ok {
			return n, nil
		}
		return nil, Reject("%s expects a number, got %q", name, v)
	case Bare:
		if n, ok := parseNumber(string(v)); ok {
			return n, nil
		}
		return nil, &ReferenceError{Name: string(v)}
	default:
		return nil, Reject("%s expects a number, got %T", name, arg)
	}
}

func parseNumber(s string) (any, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// timestamp returns a time argument.
func timestamp(name string, arg any) (time.Time, error) {
	switch v := arg.(type) {
	case int64:
		return time.Unix(v, 0), nil
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)), nil
	case string:
		if t, ok := parseTime(v); ok {
			return t, nil
		}
		return time.Time{}, Reject("%s: cannot parse time %q", name, v)
	case Bare:
		if t, ok := parseTime(string(v)); ok {
			return t, nil
		}
		return time.Time{}, &ReferenceError{Name: string(v)}
	default:
		return time.Time{}, Reject("%s expects a time, got %T", name, arg)
	}
}

func parseTime(s string) (time.Time, bool) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// unit returns the duration named by a string or bare word.
func unit(name string, arg any) (time.Duration, error) {
	switch arg.(type) {
	case string, Bare:
	default:
		return 0, Reject("%s expects a unit name, got %T", name, arg)
	}
	word := strings.ToLower(Format(arg))
	d, ok := units[word]
	if !ok {
		return 0, Reject("%s: unknown unit %q", name, word)
	}
	return d, nil
}

func builtinLength(args []any, _ any) (any, error) {
	if err := arity("length", args, 1); err != nil {
		return nil, err
	}
	s, err := text("length", args[0])
	if err != nil {
		return nil, err
	}
	return int64(utf8.RuneCountInString(s)), nil
}

func stringFunc(name string, fn func(string) string) Func {
	return func(args []any, _ any) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		s, err := text(name, args[0])
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func builtinAbs(args []any, _ any) (any, error) {
	if err := arity("abs", args, 1); err != nil {
		return nil, err
	}
	n, err := number("abs", args[0])
	if err != nil {
		return nil, err
	}
	if i, ok := n.(int64); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	return math.Abs(n.(float64)), nil
}

// extremum builds min or max. The result is int64 when every argument is
// an integer.
func extremum(name string, better func(candidate, best float64) bool) Func {
	return func(args []any, _ any) (any, error) {
		if len(args) == 0 {
			return nil, Reject("%s takes at least 1 argument", name)
		}
		var (
			best    any
			bestF   float64
			allInts = true
		)
		for i, arg := range args {
			n, err := number(name, arg)
			if err != nil {
				return nil, err
			}
			f, _ := asNumber(n)
			if _, ok := n.(int64); !ok {
				allInts = false
			}
			if i == 0 || better(f, bestF) {
				best, bestF = n, f
			}
		}
		if allInts {
			return best, nil
		}
		return bestF, nil
	}
}

func builtinNow(args []any, _ any) (any, error) {
	if err := arity("now", args, 0); err != nil {
		return nil, err
	}
	return clock().Unix(), nil
}

func builtinAge(args []any, _ any) (any, error) {
	if err := arity("age", args, 2); err != nil {
		return nil, err
	}
	t, err := timestamp("age", args[0])
	if err != nil {
		return nil, err
	}
	u, err := unit("age", args[1])
	if err != nil {
		return nil, err
	}
	return float64(clock().Sub(t)) / float64(u), nil
}

func builtinDateDiff(args []any, _ any) (any, error) {
	if err := arity("datediff", args, 3); err != nil {
		return nil, err
	}
	from, err := timestamp("datediff", args[0])
	if err != nil {
		return nil, err
	}
	to, err := timestamp("datediff", args[1])
	if err != nil {
		return nil, err
	}
	u, err := unit("datediff", args[2])
	if err != nil {
		return nil, err
	}
	return float64(to.Sub(from)) / float64(u), nil
}

func timeOrder(name string, cmp func(t, u time.Time) bool) Func {
	return func(args []any, _ any) (any, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		t, err := timestamp(name, args[0])
		if err != nil {
			return nil, err
		}
		u, err := timestamp(name, args[1])
		if err != nil {
			return nil, err
		}
		return cmp(t, u), nil
	}
}
