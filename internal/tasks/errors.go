package tasks

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the dispatcher, the path guard or a
// handler matches exactly one of these with errors.Is.
var (
	ErrEmptyTask      = errors.New("empty task")
	ErrClassification = errors.New("classification failed")
	ErrUnrecognized   = errors.New("task not recognized")
	ErrInputMissing   = errors.New("input missing")
	ErrPathInvalid    = errors.New("invalid file path")
	ErrPathNotFound   = errors.New("file not found")
	ErrExecution      = errors.New("execution failed")
)

var kindNames = map[error]string{
	ErrEmptyTask:      "empty_task",
	ErrClassification: "classification",
	ErrUnrecognized:   "unrecognized",
	ErrInputMissing:   "input_missing",
	ErrPathInvalid:    "path_invalid",
	ErrPathNotFound:   "path_not_found",
	ErrExecution:      "execution",
}

// Error is a typed task failure.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns the caller-facing detail without the kind prefix.
func (e *Error) Message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func newError(kind error, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// InputMissing reports an absent handler input.
func InputMissing(path string) error {
	return newError(ErrInputMissing, nil, "file not found: %s", path)
}

// Executionf reports a handler failure unrelated to a missing input.
func Executionf(format string, args ...any) error {
	return newError(ErrExecution, nil, format, args...)
}

// ExecutionError wraps err as a handler failure with a short action prefix.
func ExecutionError(action string, err error) error {
	return newError(ErrExecution, err, "%s: %v", action, err)
}

// PathInvalidf reports a rejected /read path.
func PathInvalidf(format string, args ...any) error {
	return newError(ErrPathInvalid, nil, format, args...)
}

// PathNotFound reports a /read path that does not exist.
func PathNotFound(path string) error {
	return newError(ErrPathNotFound, nil, "file not found: %s", path)
}

// AsError normalizes err into a *Error. Untyped errors become ErrExecution.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Kind: ErrExecution, Err: err}
}

// KindName returns the wire name of err's kind ("input_missing", ...).
func KindName(err error) string {
	if te := AsError(err); te != nil {
		if name, ok := kindNames[te.Kind]; ok {
			return name
		}
	}
	return kindNames[ErrExecution]
}
