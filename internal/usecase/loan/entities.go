package loan

import (
	"time"

	"lending-backoffice/internal/domain/loan"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateLoaneeInput struct {
	FullName    string  `json:"full_name" validate:"required,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=64"`
	Address     *string `json:"address" validate:"omitempty,max=1000"`
}

type LoaneeDTO struct {
	ID          uint64    `json:"id"`
	FullName    string    `json:"full_name"`
	Email       *string   `json:"email,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateLoanInput carries money as decimals; JSON numbers and strings are both accepted.
type CreateLoanInput struct {
	LoaneeID         uint64          `json:"loanee_id" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"decpos,dec2"`
	LoanTermWeeks    int             `json:"loan_term_weeks" validate:"required,min=1,max=520"`
	Surcharge        decimal.Decimal `json:"surcharge" validate:"decnonneg,dec2"`
	Penalty          decimal.Decimal `json:"penalty" validate:"decnonneg,dec2"`
	StartDate        string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate          string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	AutoDebitEnabled bool            `json:"auto_debit_enabled"`
}

type TransitionInput struct {
	LoanID      uint64  `json:"-"`
	Status      string  `json:"status" validate:"required"`
	Message     *string `json:"message" validate:"omitempty,max=1000"`
	ActorUserID *uint64 `json:"-"`
}

type LoanDTO struct {
	ID               uint64    `json:"id"`
	LoaneeID         uint64    `json:"loanee_id"`
	Amount           string    `json:"amount"`
	LoanTermWeeks    int       `json:"loan_term_weeks"`
	Surcharge        string    `json:"surcharge"`
	Penalty          string    `json:"penalty"`
	TotalPayable     string    `json:"total_payable"`
	DueDate          string    `json:"due_date"`
	Status           string    `json:"status"`
	AutoDebitEnabled bool      `json:"auto_debit_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

type AuditDTO struct {
	ID          uint64    `json:"id"`
	ActorUserID *uint64   `json:"actor_user_id,omitempty"`
	Action      string    `json:"action"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentDTO struct {
	ID        uint64    `json:"id"`
	Amount    string    `json:"amount"`
	Reference string    `json:"reference"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryDTO struct {
	Loan     LoanDTO      `json:"loan"`
	Audits   []AuditDTO   `json:"audit_logs"`
	Payments []PaymentDTO `json:"payments"`
}

// PromoteResult summarizes one maturity pass.
type PromoteResult struct {
	Selected int `json:"selected"`
	Promoted int `json:"promoted"`
	Errors   int `json:"errors"`
}

func toLoaneeDTO(l *loan.Loanee) *LoaneeDTO {
	return &LoaneeDTO{
		ID:          l.ID,
		FullName:    l.FullName,
		Email:       l.Email,
		PhoneNumber: l.PhoneNumber,
		Address:     l.Address,
		CreatedAt:   l.CreatedAt,
	}
}

func toLoanDTO(l *loan.Loan) LoanDTO {
	return LoanDTO{
		ID:               l.ID,
		LoaneeID:         l.LoaneeID,
		Amount:           l.Amount.StringFixed(2),
		LoanTermWeeks:    l.LoanTermWeeks,
		Surcharge:        l.Surcharge.StringFixed(2),
		Penalty:          l.Penalty.StringFixed(2),
		TotalPayable:     l.TotalPayable.StringFixed(2),
		DueDate:          l.DueDate.Format(dateLayout),
		Status:           string(l.Status),
		AutoDebitEnabled: l.AutoDebitEnabled,
		CreatedAt:        l.CreatedAt,
	}
}

func toAuditDTO(a loan.AuditLog) AuditDTO {
	return AuditDTO{
		ID:          a.ID,
		ActorUserID: a.ActorUserID,
		Action:      a.Action,
		FromStatus:  string(a.FromStatus),
		ToStatus:    string(a.ToStatus),
		Message:     a.Message,
		CreatedAt:   a.CreatedAt,
	}
}

func toPaymentDTO(p loan.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        p.ID,
		Amount:    p.Amount.StringFixed(2),
		Reference: p.Reference,
		Source:    string(p.Source),
		CreatedAt: p.CreatedAt,
	}
}
