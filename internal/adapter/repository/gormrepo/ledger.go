package gormrepo

import (
	"context"

	loanDomain "lending-backoffice/internal/domain/loan"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Create(ctx context.Context, a *loanDomain.AuditLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AuditRepository) ListByLoan(ctx context.Context, orgID, loanID uint64) ([]loanDomain.AuditLog, error) {
	var out []loanDomain.AuditLog
	res := r.db.WithContext(ctx).
		Where("organization_id = ? AND loan_id = ?", orgID, loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *loanDomain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) ListByLoan(ctx context.Context, orgID, loanID uint64) ([]loanDomain.Payment, error) {
	var out []loanDomain.Payment
	res := r.db.WithContext(ctx).
		Where("organization_id = ? AND loan_id = ?", orgID, loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
