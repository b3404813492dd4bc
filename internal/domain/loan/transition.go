package loan

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrLoaneeNotFound    = errors.New("loanee not found")
	ErrInvalidStatus     = errors.New("invalid loan status")
	ErrInvalidTransition = errors.New("invalid loan status transition")
	ErrInvalidInput      = errors.New("invalid loan input")
)

// Permitted edges. Terminal states have none.
var transitions = map[Status][]Status{
	StatusNotDue:    {StatusDue, StatusPaid},
	StatusDue:       {StatusPaid, StatusDefaulted},
	StatusPaid:      nil,
	StatusDefaulted: nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// TransitionError carries the rejected edge. It matches ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid loan status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a *TransitionError when from -> to is not a permitted edge.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
