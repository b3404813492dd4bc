package gormrepo

import (
	"context"
	"errors"
	"time"

	loanDomain "lending-backoffice/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) Get(ctx context.Context, orgID, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetForUpdate(ctx context.Context, orgID, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) ListDueOn(ctx context.Context, orgID uint64, day time.Time, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ? AND due_date = ?", orgID, loanDomain.StatusDue, loanDomain.DateOf(day)).
		Order("id DESC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListMatured(ctx context.Context, day time.Time, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("status = ? AND due_date <= ?", loanDomain.StatusNotDue, loanDomain.DateOf(day)).
		Order("due_date ASC, id ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}

type LoaneeRepository struct{ db *gorm.DB }

func NewLoaneeRepository(db *gorm.DB) *LoaneeRepository { return &LoaneeRepository{db: db} }

func (r *LoaneeRepository) Create(ctx context.Context, l *loanDomain.Loanee) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoaneeRepository) Get(ctx context.Context, orgID, id uint64) (*loanDomain.Loanee, error) {
	var out loanDomain.Loanee
	res := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, loanDomain.ErrLoaneeNotFound)
	}
	return &out, nil
}

// notFound maps gorm's record-not-found to the caller's domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// duplicate maps a unique-key violation to the caller's domain error. It
// relies on gorm.Config.TranslateError.
func duplicate(err, domainErr error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainErr
	}
	return err
}
