package loan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lending-backoffice/internal/adapter/repository/gormrepo"
	domain "lending-backoffice/internal/domain/loan"
	"lending-backoffice/internal/domain/uow"
	"lending-backoffice/internal/infrastructure/cache"
	"lending-backoffice/internal/testutil/dbtest"
	"lending-backoffice/internal/testutil/loanmock"
	"lending-backoffice/internal/testutil/uowmock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type env struct {
	uc    *Usecase
	repos uow.Repos
	redis *miniredis.Miniredis
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repos := gormrepo.NewRepos(db)
	uc := NewUsecase(repos, gormrepo.NewGormUoW(db), cache.NewRedisCache(rdb)).
		WithClock(func() time.Time { return fixedNow })
	return env{uc: uc, repos: repos, redis: mr}
}

func (e env) loanee(t *testing.T, orgID uint64) uint64 {
	t.Helper()
	dto, err := e.uc.CreateLoanee(context.Background(), orgID, CreateLoaneeInput{FullName: "Ada Obi"})
	require.NoError(t, err)
	return dto.ID
}

func (e env) loan(t *testing.T, orgID uint64, in CreateLoanInput) *LoanDTO {
	t.Helper()
	if in.LoaneeID == 0 {
		in.LoaneeID = e.loanee(t, orgID)
	}
	if in.Amount.IsZero() {
		in.Amount = dec("1000.00")
	}
	if in.LoanTermWeeks == 0 {
		in.LoanTermWeeks = 4
	}
	dto, err := e.uc.Create(context.Background(), orgID, in)
	require.NoError(t, err)
	return dto
}

func TestCreate_ComputesPayableAndDueDate(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name      string
		in        CreateLoanInput
		wantTotal string
		wantDue   string
	}{
		{
			name:      "term from today",
			in:        CreateLoanInput{Amount: dec("1000.00"), Surcharge: dec("50.00"), Penalty: dec("0.00"), LoanTermWeeks: 4},
			wantTotal: "1050.00",
			wantDue:   "2026-03-30",
		},
		{
			name:      "term from start date",
			in:        CreateLoanInput{Amount: dec("0.10"), Surcharge: dec("0.20"), LoanTermWeeks: 1, StartDate: "2026-01-01"},
			wantTotal: "0.30",
			wantDue:   "2026-01-08",
		},
		{
			name:      "explicit due date wins",
			in:        CreateLoanInput{Amount: dec("500"), Penalty: dec("12.5"), LoanTermWeeks: 8, StartDate: "2026-01-01", DueDate: "2026-06-15"},
			wantTotal: "512.50",
			wantDue:   "2026-06-15",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.loan(t, 1, tt.in)
			assert.Equal(t, tt.wantTotal, got.TotalPayable)
			assert.Equal(t, tt.wantDue, got.DueDate)
			assert.Equal(t, string(domain.StatusNotDue), got.Status)
		})
	}
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	e := newEnv(t)
	lee := e.loanee(t, 1)

	tests := []struct {
		name string
		in   CreateLoanInput
		want error
	}{
		{"zero amount", CreateLoanInput{LoaneeID: lee, LoanTermWeeks: 1}, domain.ErrInvalidInput},
		{"negative surcharge", CreateLoanInput{LoaneeID: lee, Amount: dec("1"), Surcharge: dec("-1"), LoanTermWeeks: 1}, domain.ErrInvalidInput},
		{"negative penalty", CreateLoanInput{LoaneeID: lee, Amount: dec("1"), Penalty: dec("-0.01"), LoanTermWeeks: 1}, domain.ErrInvalidInput},
		{"zero term", CreateLoanInput{LoaneeID: lee, Amount: dec("1")}, domain.ErrInvalidInput},
		{"bad due date", CreateLoanInput{LoaneeID: lee, Amount: dec("1"), LoanTermWeeks: 1, DueDate: "15/06/2026"}, domain.ErrInvalidInput},
		{"loanee of other org", CreateLoanInput{LoaneeID: lee + 100, Amount: dec("1"), LoanTermWeeks: 1}, domain.ErrLoaneeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.uc.Create(context.Background(), 1, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.uc.Create(context.Background(), 2, CreateLoanInput{LoaneeID: lee, Amount: dec("1"), LoanTermWeeks: 1})
	assert.ErrorIs(t, err, domain.ErrLoaneeNotFound, "loanee is scoped by organization")
}

func TestTransition_HappyPathWritesAuditAndPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{Amount: dec("1000.00"), Surcharge: dec("50.00"), LoanTermWeeks: 4})
	actor := uint64(42)

	got, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "due", ActorUserID: &actor})
	require.NoError(t, err)
	assert.Equal(t, "due", got.Status)

	got, err = e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)

	h, err := e.uc.History(ctx, 1, l.ID)
	require.NoError(t, err)
	require.Len(t, h.Audits, 2)
	assert.Equal(t, "not_due", h.Audits[0].FromStatus)
	assert.Equal(t, "due", h.Audits[0].ToStatus)
	assert.Equal(t, domain.ActionStatusTransition, h.Audits[0].Action)
	require.NotNil(t, h.Audits[0].ActorUserID)
	assert.Equal(t, actor, *h.Audits[0].ActorUserID)

	require.Len(t, h.Payments, 1)
	assert.Equal(t, "1050.00", h.Payments[0].Amount)
	assert.Equal(t, domain.ManualPaymentReference, h.Payments[0].Reference)
	assert.Equal(t, string(domain.SourceManual), h.Payments[0].Source)
}

func TestTransition_IllegalEdgeWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{})

	_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "defaulted"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusNotDue, te.From)
	assert.Equal(t, domain.StatusDefaulted, te.To)

	_, err = e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "paid"})
	require.NoError(t, err)
	_, err = e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "due"})
	assert.EqualError(t, err, "invalid loan status transition: paid -> due")

	h, err := e.uc.History(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.Len(t, h.Audits, 1)
	assert.Len(t, h.Payments, 1)
}

func TestTransition_SameStatusIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{})

	got, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "not_due"})
	require.NoError(t, err)
	assert.Equal(t, "not_due", got.Status)

	h, err := e.uc.History(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.Empty(t, h.Audits)
	assert.Empty(t, h.Payments)
}

func TestTransition_UnknownStatusAndForeignOrg(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{})

	_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "closed"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = e.uc.Transition(ctx, 2, TransitionInput{LoanID: l.ID, Status: "due"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition_PaymentFailureFailsTransition(t *testing.T) {
	ctx := context.Background()
	sentinel := errors.New("ledger down")
	stored := &domain.Loan{ID: 5, OrganizationID: 1, Status: domain.StatusDue, TotalPayable: dec("10")}

	saves := 0
	loans := &loanmock.Repo{
		GetForUpdateFn: func(context.Context, uint64, uint64) (*domain.Loan, error) {
			cp := *stored
			return &cp, nil
		},
		SaveFn: func(context.Context, *domain.Loan) error { saves++; return nil },
	}
	audits := &loanmock.AuditRepo{}
	payments := &loanmock.PaymentRepo{
		CreateFn: func(context.Context, *domain.Payment) error { return sentinel },
	}
	repos := uow.Repos{Loans: loans, Audits: audits, Payments: payments}

	uc := NewUsecase(repos, uowmock.Passthrough(repos), nil)
	_, err := uc.Transition(ctx, 1, TransitionInput{LoanID: 5, Status: "paid"})
	require.ErrorIs(t, err, sentinel, "a failed payment insert must fail the whole transition")
	assert.Equal(t, 1, saves)
	assert.Len(t, audits.Created, 1)
}

func TestTransition_ConcurrentCallersPayOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{Amount: dec("1000.00"), Surcharge: dec("50.00"), LoanTermWeeks: 4})
	_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "due"})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: l.ID, Status: "paid"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err, "losers see paid and no-op")
	}

	h, err := e.uc.History(ctx, 1, l.ID)
	require.NoError(t, err)
	require.Len(t, h.Payments, 1)
	assert.Equal(t, "1050.00", h.Payments[0].Amount)
	paid := 0
	for _, a := range h.Audits {
		if a.ToStatus == "paid" {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestTransition_ReadsLoanOnlyUnderLock(t *testing.T) {
	ctx := context.Background()
	stored := &domain.Loan{ID: 5, OrganizationID: 1, Status: domain.StatusNotDue, TotalPayable: dec("10")}

	locked := 0
	loans := &loanmock.Repo{
		GetFn: func(context.Context, uint64, uint64) (*domain.Loan, error) {
			t.Error("Transition read the loan without the row lock")
			return nil, domain.ErrNotFound
		},
		GetForUpdateFn: func(context.Context, uint64, uint64) (*domain.Loan, error) {
			locked++
			cp := *stored
			return &cp, nil
		},
	}
	repos := uow.Repos{Loans: loans, Audits: &loanmock.AuditRepo{}, Payments: &loanmock.PaymentRepo{}}

	got, err := NewUsecase(repos, uowmock.Passthrough(repos), nil).
		Transition(ctx, 1, TransitionInput{LoanID: 5, Status: "due"})
	require.NoError(t, err)
	assert.Equal(t, "due", got.Status)
	assert.Equal(t, 1, locked)
}

func TestDueToday_CachesAndInvalidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.loan(t, 1, CreateLoanInput{DueDate: "2026-03-02"})
	b := e.loan(t, 1, CreateLoanInput{DueDate: "2026-03-02"})
	e.loan(t, 1, CreateLoanInput{DueDate: "2026-03-03"})
	for _, id := range []uint64{a.ID, b.ID} {
		_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: id, Status: "due"})
		require.NoError(t, err)
	}

	got, err := e.uc.DueToday(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, e.redis.Exists(dueTodayKey(1, fixedNow)))
	ttl := e.redis.TTL(dueTodayKey(1, fixedNow))
	assert.Equal(t, 60*time.Second, ttl)

	// a transition drops the cached list
	_, err = e.uc.Transition(ctx, 1, TransitionInput{LoanID: a.ID, Status: "paid"})
	require.NoError(t, err)
	assert.False(t, e.redis.Exists(dueTodayKey(1, fixedNow)))

	got, err = e.uc.DueToday(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	other, err := e.uc.DueToday(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDueToday_ServesFromCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cached := []LoanDTO{{ID: 99, Status: "due", TotalPayable: "1.00"}}
	require.NoError(t, cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: e.redis.Addr()})).
		SetJSON(ctx, dueTodayKey(1, fixedNow), cached, time.Minute))

	got, err := e.uc.DueToday(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestPromoteMatured(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	matured := e.loan(t, 1, CreateLoanInput{DueDate: "2026-03-01"})
	today := e.loan(t, 2, CreateLoanInput{DueDate: "2026-03-02"})
	future := e.loan(t, 1, CreateLoanInput{DueDate: "2026-03-09"})
	paid := e.loan(t, 1, CreateLoanInput{DueDate: "2026-02-01"})
	_, err := e.uc.Transition(ctx, 1, TransitionInput{LoanID: paid.ID, Status: "paid"})
	require.NoError(t, err)

	res, err := e.uc.PromoteMatured(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{Selected: 2, Promoted: 2}, res)

	for _, tc := range []struct {
		org, id uint64
		want    string
	}{
		{1, matured.ID, "due"},
		{2, today.ID, "due"},
		{1, future.ID, "not_due"},
		{1, paid.ID, "paid"},
	} {
		got, err := e.uc.Get(ctx, tc.org, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Status, "loan %d", tc.id)
	}

	h, err := e.uc.History(ctx, 1, matured.ID)
	require.NoError(t, err)
	require.Len(t, h.Audits, 1)
	require.NotNil(t, h.Audits[0].Message)
	assert.Equal(t, maturedNote, *h.Audits[0].Message)
	assert.Nil(t, h.Audits[0].ActorUserID)

	res, err = e.uc.PromoteMatured(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, res.Promoted, "second pass has nothing to do")
}

func TestHistory_EmptyAndScoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.loan(t, 1, CreateLoanInput{})

	h, err := e.uc.History(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, h.Loan.ID)
	assert.NotNil(t, h.Audits)
	assert.Empty(t, h.Audits)
	assert.NotNil(t, h.Payments)
	assert.Empty(t, h.Payments)

	_, err = e.uc.History(ctx, 2, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
