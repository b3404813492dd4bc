package debit

import (
	"time"

	"lending-backoffice/internal/domain/debit"
)

const dateLayout = "2006-01-02"

type CreateScheduleInput struct {
	LoanID         uint64 `json:"loan_id" validate:"required"`
	MandateID      uint64 `json:"mandate_id" validate:"required"`
	NumberOfDebits int    `json:"number_of_debits" validate:"omitempty,min=1,max=520"`
	FirstDueDate   string `json:"first_due_date" validate:"omitempty,datetime=2006-01-02"`
}

type RegisterMandateInput struct {
	LoaneeID         uint64 `json:"loanee_id" validate:"required"`
	MandateReference string `json:"mandate_reference" validate:"required,max=255"`
	Provider         string `json:"provider" validate:"omitempty,max=32"`
}

type MandateLinkInput struct {
	LoaneeID uint64 `json:"loanee_id" validate:"required"`
}

type MandateDTO struct {
	ID               uint64    `json:"id"`
	LoaneeID         uint64    `json:"loanee_id"`
	Provider         string    `json:"provider"`
	MandateReference string    `json:"mandate_reference"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

type MandateLinkDTO struct {
	Link string `json:"link"`
}

type ItemDTO struct {
	ID             uint64     `json:"id"`
	ScheduleID     uint64     `json:"schedule_id"`
	DueDate        string     `json:"due_date"`
	Amount         string     `json:"amount"`
	Status         string     `json:"status"`
	IdempotencyKey string     `json:"idempotency_key"`
	ProviderTxnRef *string    `json:"provider_txn_ref,omitempty"`
	Attempts       int        `json:"attempts"`
	LastError      *string    `json:"last_error,omitempty"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
}

type ScheduleDTO struct {
	ID             uint64    `json:"id"`
	LoanID         uint64    `json:"loan_id"`
	MandateID      uint64    `json:"mandate_id"`
	ScheduleType   string    `json:"schedule_type"`
	NumberOfDebits int       `json:"number_of_debits"`
	TotalAmount    string    `json:"total_amount"`
	AmountPerDebit string    `json:"amount_per_debit"`
	Items          []ItemDTO `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
}

// SweepResult counts the outcome of one sweep run.
type SweepResult struct {
	Selected int  `json:"selected"`
	Paid     int  `json:"paid"`
	Failed   int  `json:"failed"`
	Skipped  int  `json:"skipped"`
	Errors   int  `json:"errors"`
	LockHeld bool `json:"lock_held"`
}

func toMandateDTO(m *debit.Mandate) *MandateDTO {
	return &MandateDTO{
		ID:               m.ID,
		LoaneeID:         m.LoaneeID,
		Provider:         m.Provider,
		MandateReference: m.MandateReference,
		Active:           m.Active,
		CreatedAt:        m.CreatedAt,
	}
}

func toItemDTO(it *debit.Item) ItemDTO {
	return ItemDTO{
		ID:             it.ID,
		ScheduleID:     it.ScheduleID,
		DueDate:        it.DueDate.Format(dateLayout),
		Amount:         it.Amount.StringFixed(2),
		Status:         string(it.Status),
		IdempotencyKey: it.IdempotencyKey,
		ProviderTxnRef: it.ProviderTxnRef,
		Attempts:       it.Attempts,
		LastError:      it.LastError,
		NextAttemptAt:  it.NextAttemptAt,
	}
}

func toScheduleDTO(s *debit.Schedule) *ScheduleDTO {
	out := &ScheduleDTO{
		ID:             s.ID,
		LoanID:         s.LoanID,
		MandateID:      s.MandateID,
		ScheduleType:   string(s.ScheduleType),
		NumberOfDebits: s.NumberOfDebits,
		TotalAmount:    s.TotalAmount.StringFixed(2),
		AmountPerDebit: s.AmountPerDebit.StringFixed(2),
		Items:          make([]ItemDTO, 0, len(s.Items)),
		CreatedAt:      s.CreatedAt,
	}
	for i := range s.Items {
		out.Items = append(out.Items, toItemDTO(&s.Items[i]))
	}
	return out
}
