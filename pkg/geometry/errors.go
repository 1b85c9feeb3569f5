package geometry

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes of a geometry load. Every error produced
// by this package carries exactly one Kind; all of them are fatal for the
// load as a whole.
type Kind int

const (
	// KindAccess means the geometry source could not be opened or read.
	KindAccess Kind = iota

	// KindSyntax means a value could not be interpreted: a malformed
	// direction expression, an invalid axis symbol, a bad dim entry or
	// dim index, or an unparsable number.
	KindSyntax

	// KindSchema means a field name is not recognized at its scope.
	KindSchema

	// KindCompleteness means a required field was never assigned.
	KindCompleteness

	// KindConsistency means two assignments contradict each other:
	// mismatched placeholder counts, mixed bad-region coordinate kinds,
	// dangling rigid-group references, inconsistent dim structures.
	KindConsistency

	// KindGeometry means a panel's fast/slow-scan transform is singular.
	KindGeometry
)

// String returns a short human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindSyntax:
		return "syntax"
	case KindSchema:
		return "schema"
	case KindCompleteness:
		return "completeness"
	case KindConsistency:
		return "consistency"
	case KindGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Error is a load failure tagged with a Kind. Err holds the underlying
// cause when one exists (for example the os error behind a KindAccess).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error produced by this package,
// looking through any wrapping applied on the way out of Load.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}

func errorf(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}
