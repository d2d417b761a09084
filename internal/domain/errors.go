package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes assistant errors so callers can branch on the
// failure class without string matching.
type ErrorKind string

const (
	// ErrorKindMissingAPIKey means a provider is configured but no key is set.
	ErrorKindMissingAPIKey ErrorKind = "missing_api_key"

	// ErrorKindUnsupportedProvider means the configured provider id is not
	// in the registry.
	ErrorKindUnsupportedProvider ErrorKind = "unsupported_provider"

	// ErrorKindProvider means the underlying provider call failed
	// (auth, network, quota). The original message is preserved verbatim.
	ErrorKindProvider ErrorKind = "provider"

	// ErrorKindEmptyCode means an action handler that requires code context
	// was invoked without any.
	ErrorKindEmptyCode ErrorKind = "empty_code_context"
)

// Error is the canonical assistant error. It carries a kind, the provider
// involved (when known) and a human-readable message.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrMissingAPIKey reports that no API key is configured for a provider.
func ErrMissingAPIKey(provider string) *Error {
	return &Error{
		Kind:     ErrorKindMissingAPIKey,
		Provider: provider,
		Message:  fmt.Sprintf("no API key configured for provider %q", provider),
	}
}

// ErrUnsupportedProvider reports an unknown provider id.
func ErrUnsupportedProvider(provider string) *Error {
	return &Error{
		Kind:     ErrorKindUnsupportedProvider,
		Provider: provider,
		Message:  fmt.Sprintf("unsupported provider %q", provider),
	}
}

// ErrProvider wraps a failure from an underlying provider SDK call,
// keeping the original message intact.
func ErrProvider(provider, message string) *Error {
	return &Error{
		Kind:     ErrorKindProvider,
		Provider: provider,
		Message:  message,
	}
}

// ErrEmptyCode reports a handler invoked without required code context.
func ErrEmptyCode(message string) *Error {
	return &Error{
		Kind:    ErrorKindEmptyCode,
		Message: message,
	}
}

// KindOf returns the ErrorKind of err, or "" when err is not a domain Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Kind
}
