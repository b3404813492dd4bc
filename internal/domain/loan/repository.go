package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Get(ctx context.Context, orgID, id uint64) (*Loan, error)
	// Locks the row for the rest of the enclosing transaction.
	GetForUpdate(ctx context.Context, orgID, id uint64) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	ListDueOn(ctx context.Context, orgID uint64, day time.Time, limit int) ([]Loan, error)
	// Cross-tenant: not_due loans whose due date is on or before day.
	ListMatured(ctx context.Context, day time.Time, limit int) ([]Loan, error)
}

type LoaneeRepository interface {
	Create(ctx context.Context, l *Loanee) error
	Get(ctx context.Context, orgID, id uint64) (*Loanee, error)
}

type AuditRepository interface {
	Create(ctx context.Context, a *AuditLog) error
	ListByLoan(ctx context.Context, orgID, loanID uint64) ([]AuditLog, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByLoan(ctx context.Context, orgID, loanID uint64) ([]Payment, error)
}
