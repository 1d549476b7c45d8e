package egl

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of failure recorded for a thread
type ErrorCode int

const (
	Success ErrorCode = iota
	NotInitialized
	BadAccess
	BadAlloc
	BadAttribute
	BadContext
	BadMatch
	BadParameter
	BadSurface
	ContextLost
)

var codeNames = map[ErrorCode]string{
	Success:        "success",
	NotInitialized: "not initialized",
	BadAccess:      "bad access",
	BadAlloc:       "bad alloc",
	BadAttribute:   "bad attribute",
	BadContext:     "bad context",
	BadMatch:       "bad match",
	BadParameter:   "bad parameter",
	BadSurface:     "bad surface",
	ContextLost:    "context lost",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Sentinel errors, one per failure kind. Match with errors.Is.
var (
	ErrNotInitialized = &Error{Code: NotInitialized}
	ErrBadAccess      = &Error{Code: BadAccess}
	ErrBadAlloc       = &Error{Code: BadAlloc}
	ErrBadAttribute   = &Error{Code: BadAttribute}
	ErrBadContext     = &Error{Code: BadContext}
	ErrBadMatch       = &Error{Code: BadMatch}
	ErrBadParameter   = &Error{Code: BadParameter}
	ErrBadSurface     = &Error{Code: BadSurface}
	ErrContextLost    = &Error{Code: ContextLost}
)

// Error is a failure with a recorded code. Op names the failing operation
// and Err, when set, is the underlying cause.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

// Errorf builds an *Error for op with a formatted cause.
func Errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches code and op to err.
func Wrap(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := "egl: " + e.Code.String()
	if e.Op != "" {
		msg = "egl: " + e.Op + ": " + e.Code.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code carried by err. Errors without one map to BadAlloc.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return BadAlloc
}

// IsContextLost reports whether err signals a lost device.
func IsContextLost(err error) bool {
	return errors.Is(err, ErrContextLost)
}
