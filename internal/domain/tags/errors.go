package tags

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against resolution failures.
var (
	ErrMalformedInput        = errors.New("malformed input")
	ErrUnrecognizedReference = errors.New("unrecognized reference")
	ErrUnresolvedReference   = errors.New("unresolved reference")
	ErrSourceRead            = errors.New("source read failed")
)

// ErrorKind classifies why a tag failed to resolve.
type ErrorKind int

const (
	MalformedInput ErrorKind = iota + 1
	UnrecognizedReference
	UnresolvedReference
	SourceReadFailure
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case UnrecognizedReference:
		return "unrecognized reference"
	case UnresolvedReference:
		return "unresolved reference"
	case SourceReadFailure:
		return "source read failure"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case MalformedInput:
		return ErrMalformedInput
	case UnrecognizedReference:
		return ErrUnrecognizedReference
	case UnresolvedReference:
		return ErrUnresolvedReference
	case SourceReadFailure:
		return ErrSourceRead
	default:
		return nil
	}
}

// CauseError is produced by the parser, classifier and resolver. It does not
// know which tag it belongs to; the Evaluator attaches that.
type CauseError struct {
	Kind    ErrorKind
	Entry   string
	Message string
}

func (e *CauseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Is matches the sentinel of the error's kind.
func (e *CauseError) Is(target error) bool {
	return e != nil && target == e.Kind.sentinel()
}

func causef(kind ErrorKind, entry, format string, args ...any) *CauseError {
	return &CauseError{Kind: kind, Entry: entry, Message: fmt.Sprintf(format, args...)}
}

// MisconfigurationError reports that a tag could not be resolved. It names
// the tag and, where one exists, the entry that broke it.
type MisconfigurationError struct {
	Tag   Key
	Kind  ErrorKind
	Entry string
	Cause string
	Err   error
}

func (e *MisconfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tag '%s' has been misconfigured: %s", e.Tag, e.Cause)
}

// Unwrap returns the underlying error, if any.
func (e *MisconfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *MisconfigurationError) Is(target error) bool {
	return e != nil && target == e.Kind.sentinel()
}

// Misconfigured attaches tag to err. CauseErrors keep their kind and entry,
// an existing MisconfigurationError is returned unchanged, and any other
// error is classified as a source read failure.
func Misconfigured(tag Key, err error) *MisconfigurationError {
	if err == nil {
		return nil
	}

	var misErr *MisconfigurationError
	if errors.As(err, &misErr) {
		if misErr.Tag.IsZero() {
			misErr.Tag = tag
		}
		return misErr
	}

	var cause *CauseError
	if errors.As(err, &cause) {
		return &MisconfigurationError{
			Tag:   tag,
			Kind:  cause.Kind,
			Entry: cause.Entry,
			Cause: cause.Message,
			Err:   err,
		}
	}

	return &MisconfigurationError{
		Tag:   tag,
		Kind:  SourceReadFailure,
		Cause: err.Error(),
		Err:   err,
	}
}
