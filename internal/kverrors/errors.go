package kverrors

import (
	"errors"
	"fmt"
)

// Error is the concrete type returned for every engine-level failure.
// Use errors.As to recover one from a returned error.
type Error struct {
	Kind Kind

	// Op names the operation that failed (e.g. "Get", "MutateIn").
	Op string

	// Status is the raw memcached status code that produced this error,
	// when the error originated from a response. Zero for locally
	// generated errors (timeout, cancellation, invalid argument).
	Status uint16

	// Step names the bootstrap step that failed, only set when
	// Kind == KindBootstrapFailed.
	Step string

	// OpIndex identifies the failing path within a subdocument multi-op
	// response; -1 when not applicable.
	OpIndex int

	// ambiguous records whether a Timeout error's operation may have
	// executed on the server despite not completing locally.
	ambiguous bool

	// Cause is the underlying error, if any (I/O error, parse error, ...).
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindBootstrapFailed:
		if e.Cause != nil {
			return fmt.Sprintf("bootstrap failed at step %q: %s: %v", e.Step, e.Kind, e.Cause)
		}
		return fmt.Sprintf("bootstrap failed at step %q: %s", e.Step, e.Kind)
	case e.Kind == KindTimeout:
		return fmt.Sprintf("%s: %s (ambiguous=%v)", e.Op, e.Kind, e.ambiguous)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against another *Error by Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Ambiguous reports whether a KindTimeout error's operation may have
// executed on the server. Only meaningful for Kind == KindTimeout; writes
// sent before the deadline elapsed are ambiguous, reads and operations
// that are idempotent by contract are not.
func (e *Error) Ambiguous() bool { return e.ambiguous }

// New constructs an Error of the given kind for operation op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op, OpIndex: -1}
}

// Wrap constructs an Error of the given kind for operation op, wrapping cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, OpIndex: -1, Cause: cause}
}

// FromStatus constructs an Error from a raw memcached status and Kind, for
// reporting the origin status to diagnostics/logging consumers.
func FromStatus(kind Kind, op string, status uint16) *Error {
	return &Error{Kind: kind, Op: op, Status: status, OpIndex: -1}
}

// Timeout constructs a KindTimeout error, recording whether the operation's
// execution is ambiguous.
func Timeout(op string, ambiguous bool) *Error {
	return &Error{Kind: KindTimeout, Op: op, OpIndex: -1, ambiguous: ambiguous}
}

// BootstrapFailed constructs a KindBootstrapFailed error naming the step
// that failed.
func BootstrapFailed(step string, cause error) *Error {
	return &Error{Kind: KindBootstrapFailed, Op: "Bootstrap", Step: step, OpIndex: -1, Cause: cause}
}

// SubdocPath constructs a per-path subdocument error carrying its op index.
func SubdocPath(kind Kind, op string, opIndex int, status uint16) *Error {
	return &Error{Kind: kind, Op: op, OpIndex: opIndex, Status: status}
}

// Of extracts the *Error from err, if any.
func Of(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind carried by err, or KindUnknown if err is not (or
// does not wrap) an *Error.
func KindOf(err error) Kind {
	if e, ok := Of(err); ok {
		return e.Kind
	}
	return KindUnknown
}
