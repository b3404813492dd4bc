package gormrepo

import (
	"context"
	"time"

	debitDomain "lending-backoffice/internal/domain/debit"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MandateRepository struct{ db *gorm.DB }

func NewMandateRepository(db *gorm.DB) *MandateRepository { return &MandateRepository{db: db} }

func (r *MandateRepository) Create(ctx context.Context, m *debitDomain.Mandate) error {
	return duplicate(r.db.WithContext(ctx).Create(m).Error, debitDomain.ErrMandateExists)
}

func (r *MandateRepository) Get(ctx context.Context, orgID, id uint64) (*debitDomain.Mandate, error) {
	var out debitDomain.Mandate
	res := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, debitDomain.ErrMandateNotFound)
	}
	return &out, nil
}

func (r *MandateRepository) GetByID(ctx context.Context, id uint64) (*debitDomain.Mandate, error) {
	var out debitDomain.Mandate
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, debitDomain.ErrMandateNotFound)
	}
	return &out, nil
}

type ScheduleRepository struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

// Create inserts the schedule row only; items go through ItemRepository.CreateBatch.
func (r *ScheduleRepository) Create(ctx context.Context, s *debitDomain.Schedule) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
	return duplicate(err, debitDomain.ErrScheduleExists)
}

func (r *ScheduleRepository) Get(ctx context.Context, orgID, id uint64) (*debitDomain.Schedule, error) {
	var out debitDomain.Schedule
	res := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC, id ASC") }).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, debitDomain.ErrScheduleNotFound)
	}
	return &out, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id uint64) (*debitDomain.Schedule, error) {
	var out debitDomain.Schedule
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, debitDomain.ErrScheduleNotFound)
	}
	return &out, nil
}

func (r *ScheduleRepository) ExistsForLoanMandate(ctx context.Context, loanID, mandateID uint64) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&debitDomain.Schedule{}).
		Where("loan_id = ? AND mandate_id = ?", loanID, mandateID).
		Count(&n)
	return n > 0, res.Error
}

type ItemRepository struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) *ItemRepository { return &ItemRepository{db: db} }

func (r *ItemRepository) CreateBatch(ctx context.Context, items []debitDomain.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *ItemRepository) GetByID(ctx context.Context, id uint64) (*debitDomain.Item, error) {
	var out debitDomain.Item
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, debitDomain.ErrItemNotFound)
	}
	return &out, nil
}

func (r *ItemRepository) GetForOrg(ctx context.Context, orgID, id uint64) (*debitDomain.Item, error) {
	owned := r.db.Model(&debitDomain.Schedule{}).Select("id").Where("organization_id = ?", orgID)

	var out debitDomain.Item
	res := r.db.WithContext(ctx).
		Where("id = ? AND schedule_id IN (?)", id, owned).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, debitDomain.ErrItemNotFound)
	}
	return &out, nil
}

func (r *ItemRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]debitDomain.Item, error) {
	var out []debitDomain.Item
	res := r.db.WithContext(ctx).
		Where("(status = ? AND due_date <= ?) OR (status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?)",
			debitDomain.ItemPending, dateOf(now), debitDomain.ItemFailed, now).
		Order("due_date ASC, id ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}

// Claim is a conditional update: the affected-row count is the lock.
func (r *ItemRepository) Claim(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&debitDomain.Item{}).
		Where("id = ?", id).
		Where("(status = ? OR (status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?))",
			debitDomain.ItemPending, debitDomain.ItemFailed, now).
		Updates(map[string]any{
			"status":     debitDomain.ItemProcessing,
			"claimed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ItemRepository) Settle(ctx context.Context, it *debitDomain.Item) error {
	res := r.db.WithContext(ctx).
		Model(&debitDomain.Item{}).
		Where("id = ? AND status = ?", it.ID, debitDomain.ItemProcessing).
		Updates(map[string]any{
			"status":           it.Status,
			"attempts":         it.Attempts,
			"provider_txn_ref": it.ProviderTxnRef,
			"last_error":       it.LastError,
			"next_attempt_at":  it.NextAttemptAt,
			"claimed_at":       nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return debitDomain.ErrItemNotClaimable
	}
	it.ClaimedAt = nil
	return nil
}

func (r *ItemRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&debitDomain.Item{}).
		Where("status = ? AND claimed_at IS NOT NULL AND claimed_at < ?", debitDomain.ItemProcessing, cutoff).
		Updates(map[string]any{
			"status":     debitDomain.ItemPending,
			"claimed_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *ItemRepository) SetStatus(ctx context.Context, id uint64, from []debitDomain.ItemStatus, to debitDomain.ItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&debitDomain.Item{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":          to,
			"next_attempt_at": nil,
			"claimed_at":      nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
