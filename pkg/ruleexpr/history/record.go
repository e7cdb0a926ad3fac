package history

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted rule outcome.
type Record struct {
	ID       string
	RunID    string
	Rule     string
	Sequence int

	// Outcome is the outcome name: "pass", "fail" or "indeterminate".
	Outcome string

	// Value is the expression result: bool, int64, float64, string or nil.
	Value any

	// Error is the evaluation error text for indeterminate outcomes.
	Error   string
	Message string

	Timestamp time.Time
}

// NewRecord creates a record with a fresh ID and the current time.
func NewRecord(runID, rule, outcome string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Rule:      rule,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	}
}

// WithValue sets the expression result.
func (r *Record) WithValue(v any) *Record {
	r.Value = v
	return r
}

// WithError records an evaluation error. A nil error clears it.
func (r *Record) WithError(err error) *Record {
	if err == nil {
		r.Error = ""
		return r
	}
	r.Error = err.Error()
	return r
}

// WithMessage sets the expanded rule message.
func (r *Record) WithMessage(msg string) *Record {
	r.Message = msg
	return r
}

// prepare fills the fields a store is responsible for.
func (r *Record) prepare() error {
	if r == nil || r.Rule == "" {
		return ErrInvalidRecord
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

// encodeValue splits a result into a kind tag and its text so the
// concrete type survives a round trip through a text column.
func encodeValue(v any) (kind, text string, err error) {
	switch val := v.(type) {
	case nil:
		return "", "", nil
	case bool:
		return "bool", strconv.FormatBool(val), nil
	case int64:
		return "int", strconv.FormatInt(val, 10), nil
	case int:
		return "int", strconv.Itoa(val), nil
	case float64:
		return "float", strconv.FormatFloat(val, 'g', -1, 64), nil
	case string:
		return "string", val, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported value type %T", ErrInvalidRecord, v)
	}
}

func decodeValue(kind, text string) (any, error) {
	switch kind {
	case "":
		return nil, nil
	case "bool":
		return strconv.ParseBool(text)
	case "int":
		return strconv.ParseInt(text, 10, 64)
	case "float":
		return strconv.ParseFloat(text, 64)
	case "string":
		return text, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}
