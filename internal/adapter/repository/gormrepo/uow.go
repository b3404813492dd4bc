package gormrepo

import (
	"context"

	"lending-backoffice/internal/domain/loan"
	"lending-backoffice/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// NewRepos binds every repository to db, which may be a transaction.
func NewRepos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Loanees:   &LoaneeRepository{db: db},
		Loans:     &LoanRepository{db: db},
		Audits:    &AuditRepository{db: db},
		Payments:  &PaymentRepository{db: db},
		Mandates:  &MandateRepository{db: db},
		Schedules: &ScheduleRepository{db: db},
		Items:     &ItemRepository{db: db},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, orgID, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := NewRepos(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetForUpdate(ctx, orgID, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
