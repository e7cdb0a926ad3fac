// Package retry runs rule actions again when they fail transiently.
//
// Errors are classified before a retry is attempted:
//   - Transient: another attempt may succeed (timeouts, unavailable sinks)
//   - Permanent: another attempt will not help
//
// Actions mark their errors with Transient or Permanent. Unmarked errors
// are permanent, so nothing is retried unless an action asks for it.
package retry

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryPermanent indicates retry won't help.
	CategoryPermanent Category = iota

	// CategoryTransient indicates retry will likely help.
	CategoryTransient
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Err, e.Category)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient marks err as worth retrying. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// Permanent marks err as not worth retrying. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// temporary is implemented by errors such as net.Error that know whether
// they are temporary.
type temporary interface {
	Temporary() bool
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	var tmp temporary
	if errors.As(err, &tmp) && tmp.Temporary() {
		return CategoryTransient
	}

	// Unknown errors are permanent (fail safe)
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
