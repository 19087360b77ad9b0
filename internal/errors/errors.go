package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/menuboard/internal/logger"
)

var (
	// ErrNetwork marks a backend call that could not reach or complete against the server
	ErrNetwork = stderrors.New("network failure")
	// ErrValidation marks input rejected before any network call or write
	ErrValidation = stderrors.New("validation failure")
	// ErrNotFound marks a category, menu item or record the server does not know
	ErrNotFound = stderrors.New("not found")
)

// NetworkError wraps a failed backend call. It matches ErrNetwork with errors.Is
// and unwraps to the underlying transport or status error.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Network wraps err as a NetworkError for the named operation. A nil err stays nil.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne *NetworkError
	if stderrors.As(err, &ne) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}

// Backend wraps a failed backend call like Network, except that validation
// and not-found answers are returned as they are.
func Backend(op string, err error) error {
	if stderrors.Is(err, ErrValidation) || stderrors.Is(err, ErrNotFound) {
		return err
	}
	return Network(op, err)
}

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return strings.ToUpper(e.Field[:1]) + e.Field[1:] + " " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
