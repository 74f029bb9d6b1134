package message

import (
	"errors"
	"fmt"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoUpdateData    = errors.New("no update data provided")
)

// ValidationError is returned before any write when the input breaks a field rule.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// PersistenceError is a store failure during a write. The transaction has been
// rolled back by the time it is returned.
type PersistenceError struct {
	Op  Operation
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Summary(), e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Summary is the user-facing description of the failed operation.
func (e *PersistenceError) Summary() string {
	return fmt.Sprintf("Failed to %s message", e.Op)
}
