package dispatch

import (
	"errors"
	"fmt"
)

// ErrInterrupted marks a task aborted by cancellation while waiting for the
// gate or pausing between tickets.
var ErrInterrupted = errors.New("dispatch interrupted")

// Error is the task-fatal error every aborted batch ends with.
type Error struct {
	Task     string
	Op       string
	TicketID string
	Err      error
}

func (e *Error) Error() string {
	if e.TicketID != "" {
		return fmt.Sprintf("dispatch %s: %s (ticket %s): %v", e.Task, e.Op, e.TicketID, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %s: %v", e.Task, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func interrupted(task, op, ticketID string, cause error) *Error {
	return &Error{Task: task, Op: op, TicketID: ticketID, Err: errors.Join(ErrInterrupted, cause)}
}
