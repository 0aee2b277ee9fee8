package errors

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidRequest is returned for malformed, missing or non-positive
	// request fields. The caller must fix and resubmit.
	ErrInvalidRequest = Register(2, "invalid request", http.StatusBadRequest)

	// ErrUnauthorized is returned when the authenticated caller is not allowed
	// to act on the given key or account.
	ErrUnauthorized = Register(3, "unauthorized", http.StatusForbidden)

	// ErrInvalidSignature is returned when a transfer signature does not
	// verify against the sender key. Such transfers are never retried.
	ErrInvalidSignature = Register(4, "invalid signature", http.StatusForbidden)

	// ErrSenderNotFound is returned when no account matches the sender key.
	ErrSenderNotFound = Register(5, "sender not found", http.StatusNotFound)

	// ErrRecipientNotFound is returned when no account matches the recipient key.
	ErrRecipientNotFound = Register(6, "recipient not found", http.StatusNotFound)

	// ErrInsufficientFunds is returned when the sender balance does not cover
	// the transfer amount.
	ErrInsufficientFunds = Register(7, "insufficient funds", http.StatusBadRequest)

	// ErrStorageUnavailable is returned when a storage collaborator fails.
	// It is retryable by the caller, the core does not retry on its own.
	ErrStorageUnavailable = Register(8, "storage unavailable", http.StatusServiceUnavailable)

	// ErrNotFound is used when a requested record does not exist.
	ErrNotFound = Register(9, "not found", http.StatusNotFound)

	// ErrDuplicate is returned when a record with the same unique key exists.
	ErrDuplicate = Register(10, "duplicate", http.StatusConflict)

	// ErrUnauthenticated is returned when no valid session is presented.
	ErrUnauthenticated = Register(11, "unauthenticated", http.StatusUnauthorized)

	// ErrCorruptChain is returned when stored blocks fail hash or linkage checks.
	ErrCorruptChain = Register(12, "corrupt chain", http.StatusInternalServerError)

	// ErrInternal marks code paths that should never be reached.
	ErrInternal = Register(13, "internal error", http.StatusInternalServerError)
)

// Register returns an error kind that should be used as the base for
// creating error instances during runtime. Codes must be unique, reusing one
// panics.
//
// Use this function only during program startup.
func Register(code uint32, description string, status int) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code:   code,
		desc:   description,
		status: status,
	}
	usedCodes[err.code] = err
	return err
}

// usedCodes keeps track of registered codes. Code 1 is reserved for errors
// that do not wrap any registered kind.
var usedCodes = map[uint32]*Error{
	1: nil,
}

// Error is a root error kind. Every error returned to API callers should
// wrap one of the registered kinds so it can be mapped to a code and status.
type Error struct {
	code   uint32
	desc   string
	status int
}

func (e Error) Error() string {
	return e.desc
}

// Code returns the registered numeric code.
func (e Error) Code() uint32 {
	return e.code
}

// HTTPStatus returns the status code used when the error reaches a client.
func (e Error) HTTPStatus() int {
	return e.status
}

// New returns a new error with this kind as its root cause.
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is New with formatting.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is checks whether err is of this kind, unwrapping through Cause.
func (kind *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}

		switch c := err.(type) {
		case causer:
			err = c.Cause()
		case interface{ Unwrap() error }:
			err = c.Unwrap()
		default:
			return false
		}
		if err == nil {
			return false
		}
	}
}

// Wrap extends given error with additional information. A stack trace is
// attached once at the innermost wrap. Wrapping nil returns nil.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
}

type wrappedError struct {
	// This error layer description.
	msg string
	// The underlying error that triggered this one.
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

func (e *wrappedError) Unwrap() error {
	return e.parent
}

// causer is implemented by errors that support wrapping.
type causer interface {
	Cause() error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackTrace returns the first stack trace found in the error chain.
func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
}

// Kind returns the registered root kind of err, or nil if err does not wrap
// any registered kind.
func Kind(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		switch c := err.(type) {
		case causer:
			err = c.Cause()
		case interface{ Unwrap() error }:
			err = c.Unwrap()
		default:
			return nil
		}
	}
	return nil
}

// HTTPStatus maps err to a response status. Unregistered errors are
// reported as 500.
func HTTPStatus(err error) int {
	if k := Kind(err); k != nil {
		return k.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Code returns the registered code for err, 1 for unregistered errors and
// 0 for nil.
func Code(err error) uint32 {
	if err == nil {
		return 0
	}
	if k := Kind(err); k != nil {
		return k.Code()
	}
	return 1
}
