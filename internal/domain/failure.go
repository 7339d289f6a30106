package domain

import "errors"

// Sentinel errors wrapped by adapters so callers can classify failures.
var (
	ErrUnintelligible     = errors.New("could not understand audio")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrIO                 = errors.New("i/o failure")
	ErrListenTimeout      = errors.New("listening timed out while waiting for phrase to start")
)

// ErrNoText reports that an export or translation was declined because the
// text was empty. It is an outcome, not a failure, and KindOf gives it no kind.
var ErrNoText = errors.New("no text available")

// FailureKind is the closed set of failure categories a stage can report.
type FailureKind string

const (
	FailureUnintelligible     FailureKind = "unintelligible"
	FailureServiceUnavailable FailureKind = "service_unavailable"
	FailureUnsupportedFormat  FailureKind = "unsupported_format"
	FailureIO                 FailureKind = "io"
	FailureOther              FailureKind = "other"
)

// KindOf classifies err into a FailureKind.
func KindOf(err error) FailureKind {
	switch {
	case err == nil, errors.Is(err, ErrNoText):
		return ""
	case errors.Is(err, ErrUnintelligible), errors.Is(err, ErrListenTimeout):
		return FailureUnintelligible
	case errors.Is(err, ErrServiceUnavailable):
		return FailureServiceUnavailable
	case errors.Is(err, ErrUnsupportedFormat):
		return FailureUnsupportedFormat
	case errors.Is(err, ErrIO):
		return FailureIO
	default:
		return FailureOther
	}
}
