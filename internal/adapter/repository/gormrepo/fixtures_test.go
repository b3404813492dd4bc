package gormrepo

import (
	"fmt"
	"testing"
	"time"

	debitDomain "lending-backoffice/internal/domain/debit"
	loanDomain "lending-backoffice/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var day0 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedLoanee(t *testing.T, db *gorm.DB, orgID uint64) *loanDomain.Loanee {
	t.Helper()
	email := "ada@example.com"
	l := &loanDomain.Loanee{OrganizationID: orgID, FullName: "Ada Obi", Email: &email}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed loanee: %v", err)
	}
	return l
}

func makeLoan(orgID, loaneeID uint64, status loanDomain.Status, due time.Time) *loanDomain.Loan {
	return &loanDomain.Loan{
		OrganizationID:   orgID,
		LoaneeID:         loaneeID,
		Amount:           dec("1000.00"),
		LoanTermWeeks:    4,
		Surcharge:        dec("50.00"),
		Penalty:          dec("0.00"),
		DueDate:          due,
		Status:           status,
		AutoDebitEnabled: true,
		TotalPayable:     dec("1050.00"),
	}
}

func seedLoan(t *testing.T, db *gorm.DB, orgID, loaneeID uint64, status loanDomain.Status, due time.Time) *loanDomain.Loan {
	t.Helper()
	l := makeLoan(orgID, loaneeID, status, due)
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

func seedMandate(t *testing.T, db *gorm.DB, orgID, loaneeID uint64, ref string, active bool) *debitDomain.Mandate {
	t.Helper()
	m := &debitDomain.Mandate{
		OrganizationID:   orgID,
		LoaneeID:         loaneeID,
		Provider:         "mono",
		MandateReference: ref,
		Active:           active,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed mandate: %v", err)
	}
	return m
}

// seedSchedule creates a schedule with one pending item per due date.
func seedSchedule(t *testing.T, db *gorm.DB, l *loanDomain.Loan, m *debitDomain.Mandate, dues ...time.Time) (*debitDomain.Schedule, []debitDomain.Item) {
	t.Helper()
	s := &debitDomain.Schedule{
		OrganizationID: l.OrganizationID,
		LoanID:         l.ID,
		MandateID:      m.ID,
		ScheduleType:   debitDomain.ScheduleMultiple,
		NumberOfDebits: len(dues),
		TotalAmount:    l.TotalPayable,
		AmountPerDebit: dec("100.00"),
	}
	if err := NewScheduleRepository(db).Create(t.Context(), s); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	items := make([]debitDomain.Item, len(dues))
	for i, d := range dues {
		items[i] = debitDomain.Item{
			ScheduleID:     s.ID,
			DueDate:        d,
			Amount:         dec("100.00"),
			Status:         debitDomain.ItemPending,
			IdempotencyKey: fmt.Sprintf("key-%d-%d", s.ID, i),
		}
	}
	if err := NewItemRepository(db).CreateBatch(t.Context(), items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	return s, items
}
