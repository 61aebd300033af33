package dashboard

import (
	"errors"
	"fmt"
)

// ErrConcurrentTaskFailed matches TaskPanicError.
var ErrConcurrentTaskFailed = errors.New("concurrent task failed")

// MissingFieldError reports an upstream response without an expected key.
// Path names the field, e.g. "courses.list.courses[].id".
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return "missing expected field: " + e.Path
}

func missingField(format string, args ...any) error {
	return &MissingFieldError{Path: fmt.Sprintf(format, args...)}
}

// TaskPanicError is a fanned-out task that panicked instead of returning.
type TaskPanicError struct {
	Task  string
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}

func (e *TaskPanicError) Is(target error) bool {
	return target == ErrConcurrentTaskFailed
}

// CourseFailure is one course whose contribution to the pending view was
// dropped.
type CourseFailure struct {
	CourseID   string
	CourseName string
	Err        error
}

func (f CourseFailure) Error() string {
	return fmt.Sprintf("course %s: %v", f.CourseID, f.Err)
}

func (f CourseFailure) Unwrap() error {
	return f.Err
}
