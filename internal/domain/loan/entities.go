package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNotDue    Status = "not_due"
	StatusDue       Status = "due"
	StatusPaid      Status = "paid"
	StatusDefaulted Status = "defaulted"
)

type PaymentSource string

const (
	SourceManual      PaymentSource = "manual"
	SourceDirectDebit PaymentSource = "direct_debit"
)

const (
	ActionStatusTransition = "loan_status_transition"
	// Reference stored on payments created by a manual transition to paid.
	ManualPaymentReference = "manual-status-update"
)

// Table: loanees
type Loanee struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID uint64    `gorm:"column:organization_id;not null;index" json:"organization_id"`
	FullName       string    `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Email          *string   `gorm:"column:email;size:255;index" json:"email,omitempty"`
	PhoneNumber    *string   `gorm:"column:phone_number;size:64" json:"phone_number,omitempty"`
	Address        *string   `gorm:"column:address;type:text" json:"address,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loanee) TableName() string { return "loanees" }

// Table: loans. TotalPayable is snapshotted at creation and never recomputed.
type Loan struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID   uint64          `gorm:"column:organization_id;not null;index:idx_loans_org_due_status,priority:1" json:"organization_id"`
	LoaneeID         uint64          `gorm:"column:loanee_id;not null;index" json:"loanee_id"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	LoanTermWeeks    int             `gorm:"column:loan_term_weeks;not null" json:"loan_term_weeks"`
	Surcharge        decimal.Decimal `gorm:"column:surcharge;type:decimal(12,2);not null" json:"surcharge"`
	Penalty          decimal.Decimal `gorm:"column:penalty;type:decimal(12,2);not null" json:"penalty"`
	DueDate          time.Time       `gorm:"column:due_date;type:date;not null;index:idx_loans_due_status,priority:1;index:idx_loans_org_due_status,priority:2" json:"due_date"`
	Status           Status          `gorm:"column:status;type:varchar(16);not null;default:'not_due';index:idx_loans_due_status,priority:2;index:idx_loans_org_due_status,priority:3" json:"status"`
	AutoDebitEnabled bool            `gorm:"column:auto_debit_enabled;not null;default:false" json:"auto_debit_enabled"`
	TotalPayable     decimal.Decimal `gorm:"column:total_payable;type:decimal(12,2);not null" json:"total_payable"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Table: audit_logs (append-only, one row per applied transition)
type AuditLog struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID uint64    `gorm:"column:organization_id;not null;index" json:"organization_id"`
	ActorUserID    *uint64   `gorm:"column:actor_user_id;index" json:"actor_user_id,omitempty"`
	LoanID         uint64    `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Action         string    `gorm:"column:action;size:64;not null" json:"action"`
	FromStatus     Status    `gorm:"column:from_status;type:varchar(16)" json:"from_status"`
	ToStatus       Status    `gorm:"column:to_status;type:varchar(16)" json:"to_status"`
	Message        *string   `gorm:"column:message;type:text" json:"message,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Table: payments (append-only ledger)
type Payment struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"id"`
	OrganizationID uint64          `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID         uint64          `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Reference      string          `gorm:"column:reference;size:255;index" json:"reference"`
	Source         PaymentSource   `gorm:"column:source;type:varchar(16);not null;default:'manual'" json:"source"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
