package convert

import (
	"errors"
	"fmt"
)

// Kind classifies why a conversion failed.
type Kind int

const (
	// KindNone is the kind of a nil error.
	KindNone Kind = iota
	// UnsupportedSource means the input extension is not in the catalog.
	UnsupportedSource
	// UnsupportedCombination means the target is not reachable from the source.
	UnsupportedCombination
	// NoOpSameFormat means the request would rewrite the input in place.
	NoOpSameFormat
	// FeatureUnavailable means an optional tool or library is missing.
	FeatureUnavailable
	// UnderlyingFailure means reading, transforming or writing failed.
	UnderlyingFailure
)

var kindNames = map[Kind]string{
	KindNone:               "none",
	UnsupportedSource:      "unsupported_source",
	UnsupportedCombination: "unsupported_combination",
	NoOpSameFormat:         "noop_same_format",
	FeatureUnavailable:     "feature_unavailable",
	UnderlyingFailure:      "underlying_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified conversion failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that were not classified by the
// router count as UnderlyingFailure.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return UnderlyingFailure
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
