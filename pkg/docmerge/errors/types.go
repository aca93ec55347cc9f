package errors

import "fmt"

// MalformedInputError signals a caller contract violation: input of the
// wrong shape reached an API that requires a specific one.
type MalformedInputError struct {
	Operation string
	Message   string
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("malformed input to %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("malformed input: %s", e.Message)
}

// NotFoundError indicates a template or record lookup found nothing.
type NotFoundError struct {
	// Kind is what was looked up, e.g. "template" or "record".
	Kind string
	Key  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// CorruptContentError indicates template text that is binary or otherwise
// not usable as HTML.
type CorruptContentError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *CorruptContentError) Error() string {
	return fmt.Sprintf("corrupt content in %s: %s", e.Key, e.Reason)
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Malformed creates a MalformedInputError.
func Malformed(operation, format string, args ...any) *MalformedInputError {
	return &MalformedInputError{Operation: operation, Message: fmt.Sprintf(format, args...)}
}

// TemplateNotFound creates a NotFoundError for a template key.
func TemplateNotFound(key string) *NotFoundError {
	return &NotFoundError{Kind: "template", Key: key}
}

// RecordNotFound creates a NotFoundError for a record id.
func RecordNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "record", Key: id}
}
