// Package errors provides structured error handling for nearconnect.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitAuth     = 3 // Sign-in rejected or signature invalid
	ExitNotFound = 4 // No plugin handled, nothing connected
	ExitBusy     = 5 // Another operation is in flight
)

// ConnectError is the structured error type for nearconnect.
type ConnectError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *ConnectError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so wrapped copies compare equal to their sentinel.
func (e *ConnectError) Is(target error) bool {
	var t *ConnectError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &ConnectError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &ConnectError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Plugin chain errors.
	ErrNoPluginHandled = &ConnectError{
		Code:     "NO_PLUGIN_HANDLED",
		Message:  "no wallet plugin handled the request",
		ExitCode: ExitNotFound,
	}

	ErrSignInRejected = &ConnectError{
		Code:     "SIGN_IN_REJECTED",
		Message:  "sign-in was rejected or cancelled",
		ExitCode: ExitAuth,
	}

	ErrNoAccounts = &ConnectError{
		Code:     "NO_ACCOUNTS",
		Message:  "wallet returned no accounts",
		ExitCode: ExitAuth,
	}

	// Session errors.
	ErrAlreadyConnecting = &ConnectError{
		Code:     "ALREADY_CONNECTING",
		Message:  "a connect attempt is already in progress",
		ExitCode: ExitBusy,
	}

	ErrNotConnected = &ConnectError{
		Code:     "NOT_CONNECTED",
		Message:  "no wallet is connected",
		ExitCode: ExitNotFound,
	}

	ErrStorageCorrupt = &ConnectError{
		Code:     "STORAGE_CORRUPT",
		Message:  "stored session is corrupted",
		ExitCode: ExitGeneral,
	}

	// NEAR domain errors.
	ErrInvalidNetwork = &ConnectError{
		Code:     "INVALID_NETWORK",
		Message:  "invalid network",
		ExitCode: ExitInput,
	}

	ErrInvalidAccount = &ConnectError{
		Code:     "INVALID_ACCOUNT",
		Message:  "invalid account id",
		ExitCode: ExitInput,
	}

	ErrInvalidPublicKey = &ConnectError{
		Code:     "INVALID_PUBLIC_KEY",
		Message:  "invalid public key",
		ExitCode: ExitInput,
	}

	ErrSignatureInvalid = &ConnectError{
		Code:     "SIGNATURE_INVALID",
		Message:  "signature verification failed",
		ExitCode: ExitAuth,
	}

	// Transport errors.
	ErrRelay = &ConnectError{
		Code:     "RELAY_ERROR",
		Message:  "relay communication failed",
		ExitCode: ExitGeneral,
	}

	// Config errors.
	ErrConfigInvalid = &ConnectError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownPlugin = &ConnectError{
		Code:     "UNKNOWN_PLUGIN",
		Message:  "unknown plugin",
		ExitCode: ExitInput,
	}
)

// New creates a new ConnectError with the given code and message.
func New(code, message string) *ConnectError {
	return &ConnectError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ce *ConnectError
	if errors.As(err, &ce) {
		return &ConnectError{
			Code:       ce.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ce.Message),
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &ConnectError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the sentinel carrying cause as its underlying error.
// errors.Is matches both the sentinel and the cause.
func WithCause(sentinel *ConnectError, cause error) error {
	return &ConnectError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return &ConnectError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &ConnectError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return &ConnectError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    ce.Details,
			Suggestion: suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &ConnectError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
