package uow

import (
	"context"

	"lending-backoffice/internal/domain/debit"
	"lending-backoffice/internal/domain/loan"
)

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Loanees   loan.LoaneeRepository
	Loans     loan.Repository
	Audits    loan.AuditRepository
	Payments  loan.PaymentRepository
	Mandates  debit.MandateRepository
	Schedules debit.ScheduleRepository
	Items     debit.ItemRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the org's loan row first, then pass it in
	WithinLoanTx(ctx context.Context, orgID, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
