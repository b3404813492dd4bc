package debit

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

// Installment is one dated slice of a schedule before it is persisted.
type Installment struct {
	DueDate time.Time
	Amount  decimal.Decimal
}

type Plan struct {
	Type           ScheduleType
	AmountPerDebit decimal.Decimal
	Installments   []Installment
}

// PlanInstallments splits total into n weekly installments starting at firstDue.
//
// The per-installment amount is total/n rounded to cents with banker's
// rounding (half to even). The last installment takes the residual so the
// installments always sum to total exactly. Plans in which any installment
// would be zero or negative are rejected.
func PlanInstallments(total decimal.Decimal, n int, firstDue time.Time) (*Plan, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidInstallments
	}
	start := dateOf(firstDue)

	if n <= 1 {
		return &Plan{
			Type:           ScheduleSingle,
			AmountPerDebit: total,
			Installments:   []Installment{{DueDate: start, Amount: total}},
		}, nil
	}

	per := total.Div(decimal.NewFromInt(int64(n))).RoundBank(2)
	last := total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	if !per.IsPositive() || !last.IsPositive() {
		return nil, ErrInvalidInstallments
	}

	dates, err := weeklyDates(start, n)
	if err != nil {
		return nil, err
	}
	out := make([]Installment, n)
	for i, d := range dates {
		amt := per
		if i == n-1 {
			amt = last
		}
		out[i] = Installment{DueDate: d, Amount: amt}
	}
	return &Plan{Type: ScheduleMultiple, AmountPerDebit: per, Installments: out}, nil
}

func weeklyDates(start time.Time, n int) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   n,
		Dtstart: start,
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
