package volume

import (
	"errors"
	"fmt"
)

// Transport errors. These never leave the poller; they drive its retries.
var (
	ErrNotText = errors.New("mixer output is not valid UTF-8")
	ErrNoLines = errors.New("mixer output has no lines")
)

// CommandError is a failed mixer invocation.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return e.Command + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Command + ": " + e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies status line parse failures.
type ErrorKind int

const (
	ErrKindMalformedOutput ErrorKind = iota + 1
	ErrKindAmbiguousMuteState
	ErrKindInvalidPercentage
)

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrMalformedOutput    = errors.New("malformed mixer output")
	ErrAmbiguousMuteState = errors.New("ambiguous mute state")
	ErrInvalidPercentage  = errors.New("invalid volume percentage")
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindMalformedOutput:
		return "malformed_output"
	case ErrKindAmbiguousMuteState:
		return "ambiguous_mute_state"
	case ErrKindInvalidPercentage:
		return "invalid_percentage"
	default:
		return "unknown"
	}
}

// ParseError reports a status line the parser does not understand.
type ParseError struct {
	Kind   ErrorKind
	Line   string
	Digits string // Only set for ErrKindInvalidPercentage
	Err    error  // Underlying strconv failure, if any
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindMalformedOutput:
		return "couldn't parse mixer output"
	case ErrKindAmbiguousMuteState:
		return "couldn't parse if volume is definitely muted or not"
	case ErrKindInvalidPercentage:
		return fmt.Sprintf("couldn't parse volume from `%s`: %v", e.Digits, e.Err)
	default:
		return "couldn't parse mixer output"
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMalformedOutput:
		return e.Kind == ErrKindMalformedOutput
	case ErrAmbiguousMuteState:
		return e.Kind == ErrKindAmbiguousMuteState
	case ErrInvalidPercentage:
		return e.Kind == ErrKindInvalidPercentage
	}
	return false
}
