package debit

import (
	"errors"
	"time"
)

// RetryPolicy decides whether a failed item is picked up again by the sweep.
// A failed item with a nil NextAttemptAt stays failed until an operator
// requeues it.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Hour, MaxBackoff: 24 * time.Hour}
}

// NextAttempt returns when the item may be retried after its attempts-th
// failure with err, or nil when it must not be retried automatically.
// Backoff doubles per attempt and is capped at MaxBackoff.
func (p RetryPolicy) NextAttempt(attempts int, err error, now time.Time) *time.Time {
	if attempts >= p.MaxAttempts || !IsRetryable(err) {
		return nil
	}
	d := p.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			break
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	next := now.Add(d)
	return &next
}

// IsRetryable reports whether a charge failure is transient. Errors may
// classify themselves with a Retryable() bool method; unclassified errors
// (network, timeout, malformed response) are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	switch {
	case errors.Is(err, ErrMandateInactive),
		errors.Is(err, ErrMandateNotFound),
		errors.Is(err, ErrAmountPrecision),
		errors.Is(err, ErrProviderNotConfigured):
		return false
	}
	return true
}
