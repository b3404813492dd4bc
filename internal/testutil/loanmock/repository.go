package loanmock

import (
	"context"
	"time"

	domain "lending-backoffice/internal/domain/loan"
)

var (
	_ domain.Repository        = (*Repo)(nil)
	_ domain.LoaneeRepository  = (*LoaneeRepo)(nil)
	_ domain.AuditRepository   = (*AuditRepo)(nil)
	_ domain.PaymentRepository = (*PaymentRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-ops; reads default to domain.ErrNotFound.
type Repo struct {
	CreateFn       func(ctx context.Context, l *domain.Loan) error
	GetFn          func(ctx context.Context, orgID, id uint64) (*domain.Loan, error)
	GetForUpdateFn func(ctx context.Context, orgID, id uint64) (*domain.Loan, error)
	SaveFn         func(ctx context.Context, l *domain.Loan) error
	ListDueOnFn    func(ctx context.Context, orgID uint64, day time.Time, limit int) ([]domain.Loan, error)
	ListMaturedFn  func(ctx context.Context, day time.Time, limit int) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Get(ctx context.Context, orgID, id uint64) (*domain.Loan, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, orgID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetForUpdate(ctx context.Context, orgID, id uint64) (*domain.Loan, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, orgID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListDueOn(ctx context.Context, orgID uint64, day time.Time, limit int) ([]domain.Loan, error) {
	if m.ListDueOnFn != nil {
		return m.ListDueOnFn(ctx, orgID, day, limit)
	}
	return nil, nil
}

func (m *Repo) ListMatured(ctx context.Context, day time.Time, limit int) ([]domain.Loan, error) {
	if m.ListMaturedFn != nil {
		return m.ListMaturedFn(ctx, day, limit)
	}
	return nil, nil
}

type LoaneeRepo struct {
	CreateFn func(ctx context.Context, l *domain.Loanee) error
	GetFn    func(ctx context.Context, orgID, id uint64) (*domain.Loanee, error)
}

func (m *LoaneeRepo) Create(ctx context.Context, l *domain.Loanee) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *LoaneeRepo) Get(ctx context.Context, orgID, id uint64) (*domain.Loanee, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, orgID, id)
	}
	return nil, domain.ErrLoaneeNotFound
}

// AuditRepo records created rows in Created unless CreateFn is set.
type AuditRepo struct {
	CreateFn     func(ctx context.Context, a *domain.AuditLog) error
	ListByLoanFn func(ctx context.Context, orgID, loanID uint64) ([]domain.AuditLog, error)
	Created      []*domain.AuditLog
}

func (m *AuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	m.Created = append(m.Created, a)
	return nil
}

func (m *AuditRepo) ListByLoan(ctx context.Context, orgID, loanID uint64) ([]domain.AuditLog, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, orgID, loanID)
	}
	return nil, nil
}

// PaymentRepo records created rows in Created unless CreateFn is set.
type PaymentRepo struct {
	CreateFn     func(ctx context.Context, p *domain.Payment) error
	ListByLoanFn func(ctx context.Context, orgID, loanID uint64) ([]domain.Payment, error)
	Created      []*domain.Payment
}

func (m *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	m.Created = append(m.Created, p)
	return nil
}

func (m *PaymentRepo) ListByLoan(ctx context.Context, orgID, loanID uint64) ([]domain.Payment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, orgID, loanID)
	}
	return nil, nil
}
