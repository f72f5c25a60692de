// Package errors defines the error taxonomy shared by the claim executors,
// the scheduler and the command layer.
//
// There are three kinds of failure:
//
//   - ClaimError: a claim attempt failed (navigation, missing element,
//     rejected submission, crashed executor). Always retryable; the
//     scheduler retries it up to its limit and then sleeps long.
//   - StartupError: the run cannot begin, e.g. the accounts file is missing.
//     Fatal; the process exits with a non-zero status.
//   - CleanupError: releasing executor resources failed after an outcome.
//     Logged and otherwise ignored.
//
// TimeoutError marks a step that ran past its deadline and is usually the
// cause of a ClaimError.
//
// Checking errors:
//
//	if errors.IsFatal(err) { return 1 }
//
//	var ce *errors.ClaimError
//	if errors.As(err, &ce) { log.Warn("claim failed", "phase", ce.Phase) }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions so callers need a single import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Claim sentinel errors.
var (
	// ErrBrowserLaunch indicates the browser could not be started.
	ErrBrowserLaunch = New("browser launch failed")
	// ErrCommandFailed indicates the external claim command exited non-zero.
	ErrCommandFailed = New("claim command failed")
)

// ErrTimeout indicates that an operation timed out.
var ErrTimeout = New("operation timed out")

// MidenError is implemented by every error type in this package.
type MidenError interface {
	error
	Unwrap() error
	Severity() Severity
	IsRetryable() bool
}

type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

func (e *baseError) Error() string {
	switch {
	case e.message == "":
		return fmt.Sprint(e.cause)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	default:
		return e.message
	}
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }

// ClaimError is a failed claim attempt. Its message leads with the phase so
// the first few dozen characters identify the failing step.
//
//	err := errors.NewClaimError("wait for input", ctx.Err()).WithAccount(3)
//	fmt.Println(err) // "wait for input: context deadline exceeded"
type ClaimError struct {
	baseError
	Phase     string
	AccountID int
}

// NewClaimError creates a ClaimError for the given phase.
func NewClaimError(phase string, cause error) *ClaimError {
	return &ClaimError{
		baseError: baseError{
			message:   phase,
			cause:     cause,
			severity:  SeverityWarning,
			retryable: true,
		},
		Phase: phase,
	}
}

// WithAccount records the account the attempt was made for.
func (e *ClaimError) WithAccount(id int) *ClaimError {
	e.AccountID = id
	return e
}

// StartupError prevents a run from starting.
//
//	err := errors.NewStartupError("wallets.txt", os.ErrNotExist)
//	fmt.Println(err) // "startup failed [wallets.txt]: file does not exist"
type StartupError struct {
	baseError
	Path string
}

// NewStartupError creates a StartupError for the input at path.
func NewStartupError(path string, cause error) *StartupError {
	return &StartupError{
		baseError: baseError{
			message:  "startup failed",
			cause:    cause,
			severity: SeverityCritical,
		},
		Path: path,
	}
}

func (e *StartupError) Error() string {
	prefix := e.message
	if e.Path != "" {
		prefix = fmt.Sprintf("%s [%s]", e.message, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// CleanupError is a failure while releasing executor resources.
type CleanupError struct {
	baseError
	Resource string
}

// NewCleanupError creates a CleanupError for the named resource.
func NewCleanupError(resource string, cause error) *CleanupError {
	return &CleanupError{
		baseError: baseError{
			message:  "cleanup of " + resource,
			cause:    cause,
			severity: SeverityDebug,
		},
		Resource: resource,
	}
}

// TimeoutError is an operation that ran past its deadline.
//
//	err := errors.NewTimeoutError("navigate", 60*time.Second)
//	fmt.Println(err) // "navigate timed out after 1m0s"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Duration)
}

// Is makes every TimeoutError match ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var me MidenError
	if As(err, &me) {
		return me.IsRetryable()
	}
	return Is(err, ErrTimeout)
}

// IsFatal reports whether err must abort the process.
func IsFatal(err error) bool {
	var se *StartupError
	return As(err, &se)
}

// GetSeverity returns the severity of err, SeverityError when unknown.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var me MidenError
	if As(err, &me) {
		return me.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Short returns the first n runes of err's message.
func Short(err error, n int) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	r := []rune(msg)
	if len(r) <= n {
		return msg
	}
	return string(r[:n])
}
