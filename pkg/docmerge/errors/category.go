// Package errors provides error types, categorization, and retry for docmerge.
//
// The package separates three kinds of failure:
//   - Contract violations: the caller passed input of the wrong shape. Fail fast.
//   - Collaborator failures: a template or record could not be found or read.
//     The merge pipeline may recover from some of these with a fallback document.
//   - Transient I/O: retried with backoff before giving up.
//
// Unresolved placeholders are never errors; see package placeholder.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryPermanent indicates retry won't help and no fallback applies.
	CategoryPermanent Category = iota

	// CategoryTransient indicates retry will likely help.
	// Examples: 503 from a template server, timeouts.
	CategoryTransient

	// CategoryContract indicates the caller broke an API contract.
	// Examples: a JSON array where a record object was required.
	CategoryContract

	// CategoryNotFound indicates a template or record does not exist.
	CategoryNotFound

	// CategoryCorrupt indicates content exists but is binary or undecodable.
	CategoryCorrupt
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPermanent:
		return "permanent"
	case CategoryTransient:
		return "transient"
	case CategoryContract:
		return "contract"
	case CategoryNotFound:
		return "not_found"
	case CategoryCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
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

	var malformed *MalformedInputError
	if errors.As(err, &malformed) {
		return CategoryContract
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return CategoryNotFound
	}

	var corrupt *CorruptContentError
	if errors.As(err, &corrupt) {
		return CategoryCorrupt
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 404, 410:
			return CategoryNotFound
		case 408, 429, 502, 503, 504:
			return CategoryTransient
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient
			}
			return CategoryPermanent
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsFallbackEligible reports whether a merge may continue with a fallback
// document instead of failing.
func IsFallbackEligible(err error) bool {
	cat := Categorize(err)
	return cat == CategoryNotFound || cat == CategoryCorrupt
}

// IsContractViolation reports whether the error stems from caller misuse.
func IsContractViolation(err error) bool {
	return Categorize(err) == CategoryContract
}
