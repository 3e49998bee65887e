// Package verrors defines the fixed set of raisable error categories the
// co-location engine uses. Every category is fatal to the run except where
// the engine documents an explicit local-recovery path (bounding-box
// primary/fallback, spatial-colocation primary/fallback, temporal-colocation
// halo-only empty-segment tolerance).
package verrors

import "fmt"

// Kind identifies which of the fixed error categories an error belongs to.
type Kind int

const (
	// KindCFCompliance: a coordinate cannot be located, a calendar mismatch
	// is unresolvable, or parametric vertical computation fails.
	KindCFCompliance Kind = iota
	// KindIncompatibleInputs: model T-range does not enclose obs T-range.
	KindIncompatibleInputs
	// KindDataReading: input path matches no files, or only sub-directories.
	KindDataReading
	// KindConfiguration: a required selector/flag is missing or malformed.
	KindConfiguration
	// KindInternal: a post-condition was violated. Should be unreachable.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindCFCompliance:
		return "CFComplianceError"
	case KindIncompatibleInputs:
		return "IncompatibleInputsError"
	case KindDataReading:
		return "DataReadingError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type for all engine failures; Kind lets
// callers branch with errors.As without string-matching messages.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

func new_(k Kind, format string, args ...interface{}) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// CFCompliance reports a CF-conventions compliance failure.
func CFCompliance(format string, args ...interface{}) *Error {
	return new_(KindCFCompliance, format, args...)
}

// IncompatibleInputs reports a model/obs temporal-envelope mismatch.
func IncompatibleInputs(format string, args ...interface{}) *Error {
	return new_(KindIncompatibleInputs, format, args...)
}

// DataReading reports an input path/file resolution failure.
func DataReading(format string, args ...interface{}) *Error {
	return new_(KindDataReading, format, args...)
}

// Configuration reports a bad or missing configuration value.
func Configuration(format string, args ...interface{}) *Error {
	return new_(KindConfiguration, format, args...)
}

// Internal reports a post-condition violation; indicates an engine bug.
func Internal(format string, args ...interface{}) *Error {
	return new_(KindInternal, format, args...)
}

// Wrap attaches a cause to an existing category, preserving Kind.
func (e *Error) Wrap(err error) *Error {
	return &Error{kind: e.kind, msg: e.msg, err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	var ve *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ve = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ve != nil && ve.kind == k
}
