package isojs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"
)

// Package-level sentinel errors for non-script failure modes.
var (
	ErrIsolateDisposed  = errors.New("isolate disposed")
	ErrValueNotObject   = errors.New("value is not an Object")
	ErrValueNotFunction = errors.New("value is not a Function")
	ErrValueNotPromise  = errors.New("value is not a Promise")
)

// JSError is the structured record every script-originated failure is
// translated into before crossing the bridge. No engine panic or exception
// type ever reaches host code.
type JSError struct {
	// Message is the exception rendered as a string, or the fixed
	// termination sentinel when the run was forcibly stopped.
	Message string
	// Location is "<origin>:<line>:<column>" with 1-based positions; each
	// segment is present only if the engine could supply it. Empty on
	// termination.
	Location string
	// StackTrace is the full formatted stack, best effort. Empty on
	// termination.
	StackTrace string
}

func (e *JSError) Error() string {
	return e.Message
}

// Format implements fmt.Formatter so %+v includes the stack trace.
func (e *JSError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.StackTrace != "" {
			fmt.Fprintf(s, "%v", e.StackTrace)
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%v", e.Message)
	case 'q':
		fmt.Fprintf(s, "%q", e.Message)
	}
}

// IsTerminationError reports whether err is the translated result of a
// forced TerminateExecution rather than a script-thrown exception.
func IsTerminationError(err error) bool {
	var jsErr *JSError
	return errors.As(err, &jsErr) && jsErr.Message == terminatedSentinel
}

// frameLoc matches the first "origin:line:column" position in a formatted
// stack frame, tolerating the engine's trailing program-counter suffix.
var frameLoc = regexp.MustCompile(`([^\s()]+):(\d+):(\d+)`)

// translateError converts an engine failure into a *JSError. Termination
// short-circuits to the sentinel message with no location or stack, since a
// forced stop carries no exception of its own.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if s, ok := interrupted.Value().(string); ok && s == terminatedSentinel {
			return &JSError{Message: terminatedSentinel}
		}
		return &JSError{Message: fmt.Sprintf("%v", interrupted.Value())}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		msg := ""
		if v := exception.Value(); v != nil {
			msg = v.String()
		}
		stack := strings.TrimRight(exception.String(), "\n")
		return &JSError{
			Message:    msg,
			Location:   parseLocation(stack),
			StackTrace: stack,
		}
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		msg := syntax.Error()
		return &JSError{Message: msg, Location: parseLocation(msg)}
	}
	var reference *goja.CompilerReferenceError
	if errors.As(err, &reference) {
		msg := reference.Error()
		return &JSError{Message: msg, Location: parseLocation(msg)}
	}

	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		msg := overflow.Error()
		return &JSError{Message: msg, StackTrace: overflow.String()}
	}

	return &JSError{Message: err.Error()}
}

// parseLocation extracts the first source position from a formatted message
// or stack trace. Positions the engine could not supply stay absent.
func parseLocation(s string) string {
	m := frameLoc.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + ":" + m[2] + ":" + m[3]
}
