package classroom

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every error produced by a failed API call.
var ErrRequestFailed = errors.New("classroom request failed")

type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("classroom %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

func requestError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{Op: op, Err: err}
}
