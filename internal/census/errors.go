package census

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPayload is returned when a payload decodes to nothing at all.
var ErrEmptyPayload = errors.New("payload does not contain a mother collection")

// DecodeError reports a payload that could not be decoded into mother records.
// No partial result accompanies it.
type DecodeError struct {
	Source string // Where the payload came from (optional)
	Format string // Payload format, e.g. "json"
	Err    error  // Underlying cause
}

// NewDecodeError creates a DecodeError for the given format.
func NewDecodeError(format string, err error) *DecodeError {
	return &DecodeError{Format: format, Err: err}
}

// Error implements the error interface for DecodeError.
func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("decode ")
	if e.Format != "" {
		sb.WriteString(e.Format)
		sb.WriteString(" ")
	}
	sb.WriteString("payload")
	if e.Source != "" {
		sb.WriteString(fmt.Sprintf(" from %s", e.Source))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// WithSource attaches source to err when it is a DecodeError and returns err.
func WithSource(err error, source string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Source == "" {
		de.Source = source
	}
	return err
}
