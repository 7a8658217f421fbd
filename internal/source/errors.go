package source

import (
	"errors"
	"fmt"

	"github.com/nhle/vulcania/internal/model"
)

// ErrUnknownCounterpart is returned when an event references a user that
// is not in the viewer's directory. Such events are logged and dropped.
var ErrUnknownCounterpart = errors.New("unknown counterpart")

// TransientFetchError wraps a backend failure while fetching messages,
// alert state, or the directory. The caller keeps its stale data and
// retries on the next poll.
type TransientFetchError struct {
	Op  string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error (%s): %v", e.Op, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientFetchError for op. It returns nil when
// err is nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientFetchError{Op: op, Err: err}
}

// IsTransient reports whether err (or any error in its chain) is a
// TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// SendFailedError indicates that the message store rejected a send. Pending
// is the optimistic message that was rolled back, so the shell can offer
// the body for retry.
type SendFailedError struct {
	Pending model.Message
	Err     error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendFailedError) Unwrap() error {
	return e.Err
}

// IsSendFailed reports whether err (or any error in its chain) is a
// SendFailedError.
func IsSendFailed(err error) bool {
	var se *SendFailedError
	return errors.As(err, &se)
}
