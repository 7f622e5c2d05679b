package pipeline

import (
	"errors"
	"fmt"
)

// Failure classes. An *Error matches its class with errors.Is.
var (
	ErrConnection = errors.New("connection failed")
	ErrNoContent  = errors.New("no content")
	ErrExtraction = errors.New("extraction failed")
	ErrOutput     = errors.New("output failed")
)

// Kind classifies an aborted run.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindNoContent
	KindExtraction
	KindOutput
)

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindNoContent:
		return ErrNoContent
	case KindExtraction:
		return ErrExtraction
	case KindOutput:
		return ErrOutput
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error reports which stage of a run failed.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func newError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return 1
	}
	switch pe.Kind {
	case KindConnection:
		return 2
	case KindNoContent:
		return 3
	case KindExtraction:
		return 4
	case KindOutput:
		return 5
	default:
		return 1
	}
}
