// pkg/errors/harden_errors.go
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a HardenError. Read-path failures (query, format) and caller
// mistakes (invalid_argument, unsupported_type) propagate to the caller.
type Kind string

const (
	KindQuery           Kind = "query"
	KindFormat          Kind = "format"
	KindInvalidArgument Kind = "invalid_argument"
	KindUnsupportedType Kind = "unsupported_type"
	KindExternal        Kind = "external"
	KindPlatform        Kind = "platform"
)

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrQuery               = &HardenError{Kind: KindQuery}
	ErrFormat              = &HardenError{Kind: KindFormat}
	ErrInvalidArgument     = &HardenError{Kind: KindInvalidArgument}
	ErrUnsupportedType     = &HardenError{Kind: KindUnsupportedType}
	ErrExternal            = &HardenError{Kind: KindExternal}
	ErrUnsupportedPlatform = &HardenError{Kind: KindPlatform, Message: "only supported on windows"}
)

// HardenError represents a structured error from a hardening operation
type HardenError struct {
	Op      string                 `json:"op,omitempty"`
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (he *HardenError) Error() string {
	var b strings.Builder
	if he.Op != "" {
		b.WriteString(he.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(he.Kind))
	if he.Message != "" {
		b.WriteString(": ")
		b.WriteString(he.Message)
	}
	if he.Cause != nil {
		b.WriteString(": ")
		b.WriteString(he.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (he *HardenError) Unwrap() error {
	return he.Cause
}

// Is reports whether target is a HardenError of the same Kind. A target with
// an Op only matches errors raised by that operation.
func (he *HardenError) Is(target error) bool {
	t, ok := target.(*HardenError)
	if !ok {
		return false
	}
	if t.Kind != he.Kind {
		return false
	}
	return t.Op == "" || t.Op == he.Op
}

// Helper functions for creating common error types

func NewQueryError(op, message string, cause error) *HardenError {
	return &HardenError{
		Op:      op,
		Kind:    KindQuery,
		Message: message,
		Cause:   cause,
	}
}

func NewFormatError(op string, raw string, cause error) *HardenError {
	return &HardenError{
		Op:      op,
		Kind:    KindFormat,
		Message: fmt.Sprintf("invalid value %q", raw),
		Details: map[string]interface{}{
			"raw": raw,
		},
		Cause: cause,
	}
}

func NewInvalidArgumentError(op, argument, message string) *HardenError {
	return &HardenError{
		Op:      op,
		Kind:    KindInvalidArgument,
		Message: fmt.Sprintf("%s: %s", argument, message),
		Details: map[string]interface{}{
			"argument": argument,
		},
	}
}

func NewUnsupportedTypeError(op, typeName string) *HardenError {
	return &HardenError{
		Op:      op,
		Kind:    KindUnsupportedType,
		Message: fmt.Sprintf("unsupported type %s", typeName),
		Details: map[string]interface{}{
			"type": typeName,
		},
	}
}

func NewExternalError(op, command string, output string, cause error) *HardenError {
	details := map[string]interface{}{
		"command": command,
	}
	if output != "" {
		details["output"] = output
	}
	return &HardenError{
		Op:      op,
		Kind:    KindExternal,
		Message: fmt.Sprintf("%s failed", command),
		Details: details,
		Cause:   cause,
	}
}

// NewPlatformError marks op as unavailable on the running OS.
func NewPlatformError(op string) *HardenError {
	return &HardenError{
		Op:      op,
		Kind:    KindPlatform,
		Message: ErrUnsupportedPlatform.Message,
	}
}
