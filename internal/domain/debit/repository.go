package debit

import (
	"context"
	"time"
)

type MandateRepository interface {
	Create(ctx context.Context, m *Mandate) error
	Get(ctx context.Context, orgID, id uint64) (*Mandate, error)
	GetByID(ctx context.Context, id uint64) (*Mandate, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	// Get loads the schedule with its items ordered by due date.
	Get(ctx context.Context, orgID, id uint64) (*Schedule, error)
	GetByID(ctx context.Context, id uint64) (*Schedule, error)
	ExistsForLoanMandate(ctx context.Context, loanID, mandateID uint64) (bool, error)
}

type ItemRepository interface {
	CreateBatch(ctx context.Context, items []Item) error
	GetByID(ctx context.Context, id uint64) (*Item, error)
	GetForOrg(ctx context.Context, orgID, id uint64) (*Item, error)
	// ListDue selects pending items due on or before now and failed items
	// whose retry time has passed, ordered by due date then id.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Item, error)
	// Claim moves an eligible item to processing. It reports false when
	// another executor holds the item or it is no longer eligible.
	Claim(ctx context.Context, id uint64, now time.Time) (bool, error)
	// Settle writes the outcome of a claimed item. It fails with
	// ErrItemNotClaimable when the item is no longer processing.
	Settle(ctx context.Context, it *Item) error
	// ReleaseStale returns processing items claimed before cutoff to pending.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
	SetStatus(ctx context.Context, id uint64, from []ItemStatus, to ItemStatus) (bool, error)
}
