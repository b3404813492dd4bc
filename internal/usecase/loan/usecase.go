package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-backoffice/internal/domain/loan"
	"lending-backoffice/internal/domain/uow"
)

const (
	dueTodayTTL   = 60 * time.Second
	dueTodayLimit = 500
	maturedNote   = "due date reached"
)

// Cache is the JSON cache used for the due-today list.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Usecase struct {
	repos uow.Repos
	uow   uow.UnitOfWork
	cache Cache
	now   func() time.Time
}

// NewUsecase: repos serve reads, the UoW serves every write. cache may be nil.
func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, cache Cache) *Usecase {
	return &Usecase{repos: repos, uow: tx, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the wall clock, for tests and backfills.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) CreateLoanee(ctx context.Context, orgID uint64, in CreateLoaneeInput) (*LoaneeDTO, error) {
	if in.FullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", loan.ErrInvalidInput)
	}
	l := &loan.Loanee{
		OrganizationID: orgID,
		FullName:       in.FullName,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		Address:        in.Address,
	}
	if err := u.repos.Loanees.Create(ctx, l); err != nil {
		return nil, err
	}
	return toLoaneeDTO(l), nil
}

func (u *Usecase) Create(ctx context.Context, orgID uint64, in CreateLoanInput) (*LoanDTO, error) {
	switch {
	case !in.Amount.IsPositive():
		return nil, fmt.Errorf("%w: amount must be positive", loan.ErrInvalidInput)
	case in.Surcharge.IsNegative():
		return nil, fmt.Errorf("%w: surcharge must not be negative", loan.ErrInvalidInput)
	case in.Penalty.IsNegative():
		return nil, fmt.Errorf("%w: penalty must not be negative", loan.ErrInvalidInput)
	case in.LoanTermWeeks < 1:
		return nil, fmt.Errorf("%w: loan_term_weeks must be at least 1", loan.ErrInvalidInput)
	}

	due, err := u.resolveDueDate(in)
	if err != nil {
		return nil, err
	}

	if _, err := u.repos.Loanees.Get(ctx, orgID, in.LoaneeID); err != nil {
		return nil, err
	}

	l := &loan.Loan{
		OrganizationID:   orgID,
		LoaneeID:         in.LoaneeID,
		Amount:           in.Amount,
		LoanTermWeeks:    in.LoanTermWeeks,
		Surcharge:        in.Surcharge,
		Penalty:          in.Penalty,
		DueDate:          due,
		Status:           loan.StatusNotDue,
		AutoDebitEnabled: in.AutoDebitEnabled,
		TotalPayable:     loan.TotalPayable(in.Amount, in.Surcharge, in.Penalty),
	}
	if err := u.repos.Loans.Create(ctx, l); err != nil {
		return nil, err
	}
	dto := toLoanDTO(l)
	return &dto, nil
}

// resolveDueDate: an explicit due date wins, else start (default today) plus the term.
func (u *Usecase) resolveDueDate(in CreateLoanInput) (time.Time, error) {
	if in.DueDate != "" {
		d, err := time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: due_date: %v", loan.ErrInvalidInput, err)
		}
		return d, nil
	}
	start := u.now()
	if in.StartDate != "" {
		s, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: start_date: %v", loan.ErrInvalidInput, err)
		}
		start = s
	}
	return loan.DueDate(start, in.LoanTermWeeks), nil
}

func (u *Usecase) Get(ctx context.Context, orgID, loanID uint64) (*LoanDTO, error) {
	l, err := u.repos.Loans.Get(ctx, orgID, loanID)
	if err != nil {
		return nil, err
	}
	dto := toLoanDTO(l)
	return &dto, nil
}

// Transition moves the loan to in.Status under a row lock. Moving to the
// current status is a no-op that writes nothing.
func (u *Usecase) Transition(ctx context.Context, orgID uint64, in TransitionInput) (*LoanDTO, error) {
	to := loan.Status(in.Status)
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", loan.ErrInvalidStatus, in.Status)
	}

	var (
		dto     LoanDTO
		changed bool
	)
	err := u.uow.WithinLoanTx(ctx, orgID, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		changed, err = applyTransition(ctx, r, l, to, in.ActorUserID, in.Message)
		if err != nil {
			return err
		}
		dto = toLoanDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		u.invalidateDueToday(ctx, orgID)
	}
	return &dto, nil
}

// applyTransition writes the status, its audit row and, on paid, the manual
// payment. It must run inside the transaction holding the loan lock.
func applyTransition(ctx context.Context, r uow.Repos, l *loan.Loan, to loan.Status, actor *uint64, msg *string) (bool, error) {
	if l.Status == to {
		return false, nil
	}
	if err := loan.CheckTransition(l.Status, to); err != nil {
		return false, err
	}

	from := l.Status
	l.Status = to
	if err := r.Loans.Save(ctx, l); err != nil {
		return false, err
	}
	if err := r.Audits.Create(ctx, &loan.AuditLog{
		OrganizationID: l.OrganizationID,
		ActorUserID:    actor,
		LoanID:         l.ID,
		Action:         loan.ActionStatusTransition,
		FromStatus:     from,
		ToStatus:       to,
		Message:        msg,
	}); err != nil {
		return false, err
	}
	if to == loan.StatusPaid {
		if err := r.Payments.Create(ctx, &loan.Payment{
			OrganizationID: l.OrganizationID,
			LoanID:         l.ID,
			Amount:         l.TotalPayable,
			Reference:      loan.ManualPaymentReference,
			Source:         loan.SourceManual,
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}

func dueTodayKey(orgID uint64, day time.Time) string {
	return fmt.Sprintf("loans:due-today:%d:%s", orgID, day.Format(dateLayout))
}

// DueToday lists the org's loans in status due whose due date is today.
// Results are cached briefly; cache failures fall through to the database.
func (u *Usecase) DueToday(ctx context.Context, orgID uint64) ([]LoanDTO, error) {
	today := loan.DateOf(u.now())
	key := dueTodayKey(orgID, today)

	if u.cache != nil {
		var cached []LoanDTO
		hit, err := u.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			slog.Warn("due-today cache read failed", "org_id", orgID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	loans, err := u.repos.Loans.ListDueOn(ctx, orgID, today, dueTodayLimit)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, toLoanDTO(&loans[i]))
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, dueTodayTTL); err != nil {
			slog.Warn("due-today cache write failed", "org_id", orgID, "error", err)
		}
	}
	return out, nil
}

func (u *Usecase) invalidateDueToday(ctx context.Context, orgID uint64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, dueTodayKey(orgID, loan.DateOf(u.now()))); err != nil {
		slog.Warn("due-today cache invalidation failed", "org_id", orgID, "error", err)
	}
}

func (u *Usecase) History(ctx context.Context, orgID, loanID uint64) (*HistoryDTO, error) {
	l, err := u.repos.Loans.Get(ctx, orgID, loanID)
	if err != nil {
		return nil, err
	}
	audits, err := u.repos.Audits.ListByLoan(ctx, orgID, loanID)
	if err != nil {
		return nil, err
	}
	payments, err := u.repos.Payments.ListByLoan(ctx, orgID, loanID)
	if err != nil {
		return nil, err
	}

	out := &HistoryDTO{
		Loan:     toLoanDTO(l),
		Audits:   make([]AuditDTO, 0, len(audits)),
		Payments: make([]PaymentDTO, 0, len(payments)),
	}
	for _, a := range audits {
		out.Audits = append(out.Audits, toAuditDTO(a))
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, toPaymentDTO(p))
	}
	return out, nil
}

// PromoteMatured moves not_due loans whose due date has arrived to due,
// across all organizations. Each loan is re-read under its own lock, so a
// loan settled in the meantime is skipped rather than overwritten.
func (u *Usecase) PromoteMatured(ctx context.Context, limit int) (PromoteResult, error) {
	var res PromoteResult
	today := loan.DateOf(u.now())

	candidates, err := u.repos.Loans.ListMatured(ctx, today, limit)
	if err != nil {
		return res, err
	}
	res.Selected = len(candidates)

	note := maturedNote
	touched := map[uint64]struct{}{}
	for _, c := range candidates {
		var changed bool
		err := u.uow.WithinLoanTx(ctx, c.OrganizationID, c.ID, func(r uow.Repos, l *loan.Loan) error {
			if l.Status != loan.StatusNotDue {
				return nil
			}
			var err error
			changed, err = applyTransition(ctx, r, l, loan.StatusDue, nil, &note)
			return err
		})
		if err != nil {
			res.Errors++
			slog.Error("promote matured loan failed", "loan_id", c.ID, "org_id", c.OrganizationID, "error", err)
			continue
		}
		if changed {
			res.Promoted++
			touched[c.OrganizationID] = struct{}{}
		}
	}
	for orgID := range touched {
		u.invalidateDueToday(ctx, orgID)
	}
	return res, nil
}
