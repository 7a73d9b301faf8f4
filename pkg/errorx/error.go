package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

// PartialError reports a multi-step write where the earlier steps are durable
// but a later one is not. IntentID points at the record which allows the
// pending step to be resumed.
type PartialError struct {
	Completed string
	Pending   string
	IntentID  string
	Cause     error
}

func NewPartialError(completed, pending, intentID string, cause error) *PartialError {
	return &PartialError{
		Completed: completed,
		Pending:   pending,
		IntentID:  intentID,
		Cause:     cause,
	}
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("Step %s succeeded but %s did not, intent %s", e.Completed, e.Pending, e.IntentID)
}

func (e *PartialError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of err, Unknown's code if err doesn't carry one.
func CodeOf(err error) Code {
	var partial *PartialError
	if errors.As(err, &partial) {
		return PartialApplication
	}

	var errx Error
	if errors.As(err, &errx) {
		return errx.Code
	}

	return Unknown.Code
}

func Is(err error, code Code) bool {
	if err == nil {
		return false
	}

	return CodeOf(err) == code
}
