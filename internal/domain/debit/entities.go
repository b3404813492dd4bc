package debit

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleType string

const (
	ScheduleSingle   ScheduleType = "single"
	ScheduleMultiple ScheduleType = "multiple"
)

type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemPaid       ItemStatus = "paid"
	ItemFailed     ItemStatus = "failed"
	ItemCanceled   ItemStatus = "canceled"
)

// Table: direct_debit_mandates
type Mandate struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID   uint64    `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoaneeID         uint64    `gorm:"column:loanee_id;not null;index" json:"loanee_id"`
	Provider         string    `gorm:"column:provider;size:32;not null" json:"provider"`
	MandateReference string    `gorm:"column:mandate_reference;size:255;not null;uniqueIndex:ux_mandates_reference" json:"mandate_reference"`
	Active           bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Mandate) TableName() string { return "direct_debit_mandates" }

// Table: recurring_debit_schedules. Immutable after creation.
type Schedule struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID uint64          `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID         uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_schedules_loan_mandate,priority:1" json:"loan_id"`
	MandateID      uint64          `gorm:"column:mandate_id;not null;uniqueIndex:ux_schedules_loan_mandate,priority:2;index" json:"mandate_id"`
	ScheduleType   ScheduleType    `gorm:"column:schedule_type;type:varchar(16);not null" json:"schedule_type"`
	NumberOfDebits int             `gorm:"column:number_of_debits;not null;default:1" json:"number_of_debits"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null" json:"total_amount"`
	AmountPerDebit decimal.Decimal `gorm:"column:amount_per_debit;type:decimal(12,2);not null" json:"amount_per_debit"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items []Item `gorm:"foreignKey:ScheduleID" json:"items,omitempty"`
}

func (Schedule) TableName() string { return "recurring_debit_schedules" }

// Table: debit_schedule_items. IdempotencyKey is set once at creation and
// sent unchanged on every charge attempt for the item.
type Item struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"id"`
	ScheduleID     uint64          `gorm:"column:schedule_id;not null;index" json:"schedule_id"`
	DueDate        time.Time       `gorm:"column:due_date;type:date;not null;index:idx_debit_items_due_status,priority:1" json:"due_date"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Status         ItemStatus      `gorm:"column:status;type:varchar(16);not null;default:'pending';index:idx_debit_items_due_status,priority:2" json:"status"`
	IdempotencyKey string          `gorm:"column:idempotency_key;size:64;not null;uniqueIndex:ux_debit_items_idempotency_key" json:"idempotency_key"`
	ProviderTxnRef *string         `gorm:"column:provider_txn_ref;size:255;index" json:"provider_txn_ref,omitempty"`
	Attempts       int             `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError      *string         `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	NextAttemptAt  *time.Time      `gorm:"column:next_attempt_at;index" json:"next_attempt_at,omitempty"`
	ClaimedAt      *time.Time      `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "debit_schedule_items" }
