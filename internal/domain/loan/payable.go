package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// TotalPayable is amount + surcharge + penalty in exact decimal arithmetic.
func TotalPayable(amount, surcharge, penalty decimal.Decimal) decimal.Decimal {
	return amount.Add(surcharge).Add(penalty)
}

// DueDate returns start + termWeeks weeks as a UTC calendar date.
func DueDate(start time.Time, termWeeks int) time.Time {
	return DateOf(start).AddDate(0, 0, 7*termWeeks)
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
