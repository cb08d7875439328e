package queue

import (
	stderrors "errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrTransient marks failures that the queue may retry within the job budget.
	ErrTransient   = crerr.New("transient failure")
	ErrQueueClosed = crerr.New("queue closed")
)

type transientError struct {
	cause error
}

func (e *transientError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransient.Error(), e.cause)
}

func (e *transientError) Unwrap() []error {
	return []error{ErrTransient, e.cause}
}

// MarkTransient tags err as retryable while keeping its own chain intact.
func MarkTransient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return &transientError{cause: err}
}

func IsTransient(err error) bool {
	return stderrors.Is(err, ErrTransient)
}
