package debit

import (
	"context"
	"fmt"
	"time"

	"lending-backoffice/internal/domain/debit"
	"lending-backoffice/internal/domain/loan"
	"lending-backoffice/internal/domain/uow"
	"lending-backoffice/pkg/id"
)

const defaultProvider = "mono"

type Options struct {
	Policy        debit.RetryPolicy
	ChargeTimeout time.Duration
}

type Usecase struct {
	repos         uow.Repos
	uow           uow.UnitOfWork
	provider      debit.Provider
	policy        debit.RetryPolicy
	chargeTimeout time.Duration
	now           func() time.Time
}

// NewUsecase: repos serve reads and item claims, the UoW serves multi-row writes.
func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, provider debit.Provider, opts Options) *Usecase {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = debit.DefaultRetryPolicy()
	}
	if opts.ChargeTimeout <= 0 {
		opts.ChargeTimeout = 30 * time.Second
	}
	return &Usecase{
		repos:         repos,
		uow:           tx,
		provider:      provider,
		policy:        opts.Policy,
		chargeTimeout: opts.ChargeTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock, for tests.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) RegisterMandate(ctx context.Context, orgID uint64, in RegisterMandateInput) (*MandateDTO, error) {
	if in.MandateReference == "" {
		return nil, fmt.Errorf("%w: mandate_reference is required", loan.ErrInvalidInput)
	}
	if _, err := u.repos.Loanees.Get(ctx, orgID, in.LoaneeID); err != nil {
		return nil, err
	}
	provider := in.Provider
	if provider == "" {
		provider = defaultProvider
	}
	m := &debit.Mandate{
		OrganizationID:   orgID,
		LoaneeID:         in.LoaneeID,
		Provider:         provider,
		MandateReference: in.MandateReference,
		Active:           true,
	}
	if err := u.repos.Mandates.Create(ctx, m); err != nil {
		return nil, err
	}
	return toMandateDTO(m), nil
}

// MandateLink asks the provider for an authorization link the loanee
// follows to set up a mandate.
func (u *Usecase) MandateLink(ctx context.Context, orgID uint64, in MandateLinkInput) (*MandateLinkDTO, error) {
	lee, err := u.repos.Loanees.Get(ctx, orgID, in.LoaneeID)
	if err != nil {
		return nil, err
	}
	if lee.Email == nil || *lee.Email == "" {
		return nil, debit.ErrMissingEmail
	}
	link, err := u.provider.CreateMandateLink(ctx, debit.MandateLinkRequest{Email: *lee.Email, Name: lee.FullName})
	if err != nil {
		return nil, err
	}
	return &MandateLinkDTO{Link: link}, nil
}

// CreateSchedule splits the loan's total payable into weekly items charged
// against the mandate. The schedule and its items commit together.
func (u *Usecase) CreateSchedule(ctx context.Context, orgID uint64, in CreateScheduleInput) (*ScheduleDTO, error) {
	first := u.now()
	if in.FirstDueDate != "" {
		d, err := time.Parse(dateLayout, in.FirstDueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: first_due_date: %v", loan.ErrInvalidInput, err)
		}
		first = d
	}

	l, err := u.repos.Loans.Get(ctx, orgID, in.LoanID)
	if err != nil {
		return nil, err
	}
	m, err := u.repos.Mandates.Get(ctx, orgID, in.MandateID)
	if err != nil {
		return nil, err
	}
	switch {
	case !m.Active:
		return nil, debit.ErrMandateInactive
	case m.LoaneeID != l.LoaneeID:
		return nil, debit.ErrMandateMismatch
	case !l.AutoDebitEnabled:
		return nil, debit.ErrAutoDebitDisabled
	case l.Status.Terminal():
		return nil, debit.ErrLoanClosed
	}

	plan, err := debit.PlanInstallments(l.TotalPayable, in.NumberOfDebits, first)
	if err != nil {
		return nil, err
	}

	s := &debit.Schedule{
		OrganizationID: orgID,
		LoanID:         l.ID,
		MandateID:      m.ID,
		ScheduleType:   plan.Type,
		NumberOfDebits: len(plan.Installments),
		TotalAmount:    l.TotalPayable,
		AmountPerDebit: plan.AmountPerDebit,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		exists, err := r.Schedules.ExistsForLoanMandate(ctx, l.ID, m.ID)
		if err != nil {
			return err
		}
		if exists {
			return debit.ErrScheduleExists
		}
		if err := r.Schedules.Create(ctx, s); err != nil {
			return err
		}
		items := make([]debit.Item, len(plan.Installments))
		for i, inst := range plan.Installments {
			items[i] = debit.Item{
				ScheduleID:     s.ID,
				DueDate:        inst.DueDate,
				Amount:         inst.Amount,
				Status:         debit.ItemPending,
				IdempotencyKey: id.NewIdempotencyKey(),
			}
		}
		if err := r.Items.CreateBatch(ctx, items); err != nil {
			return err
		}
		s.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toScheduleDTO(s), nil
}

func (u *Usecase) GetSchedule(ctx context.Context, orgID, scheduleID uint64) (*ScheduleDTO, error) {
	s, err := u.repos.Schedules.Get(ctx, orgID, scheduleID)
	if err != nil {
		return nil, err
	}
	return toScheduleDTO(s), nil
}

// ExecuteItemForOrg runs the executor for an item owned by orgID.
func (u *Usecase) ExecuteItemForOrg(ctx context.Context, orgID, itemID uint64) (*ItemDTO, error) {
	if _, err := u.repos.Items.GetForOrg(ctx, orgID, itemID); err != nil {
		return nil, err
	}
	it, err := u.ExecuteItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(it)
	return &dto, nil
}

// RequeueItem returns a failed item to pending so the next sweep picks it up.
func (u *Usecase) RequeueItem(ctx context.Context, orgID, itemID uint64) (*ItemDTO, error) {
	return u.moveItem(ctx, orgID, itemID, []debit.ItemStatus{debit.ItemFailed}, debit.ItemPending)
}

func (u *Usecase) CancelItem(ctx context.Context, orgID, itemID uint64) (*ItemDTO, error) {
	return u.moveItem(ctx, orgID, itemID, []debit.ItemStatus{debit.ItemPending, debit.ItemFailed}, debit.ItemCanceled)
}

func (u *Usecase) moveItem(ctx context.Context, orgID, itemID uint64, from []debit.ItemStatus, to debit.ItemStatus) (*ItemDTO, error) {
	if _, err := u.repos.Items.GetForOrg(ctx, orgID, itemID); err != nil {
		return nil, err
	}
	ok, err := u.repos.Items.SetStatus(ctx, itemID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, debit.ErrItemStatusConflict
	}
	it, err := u.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(it)
	return &dto, nil
}
