package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lending-backoffice/internal/adapter/middleware"
	"lending-backoffice/internal/adapter/repository/gormrepo"
	"lending-backoffice/internal/infrastructure/cache"
	"lending-backoffice/internal/testutil/dbtest"
	"lending-backoffice/internal/testutil/providermock"
	ucDebit "lending-backoffice/internal/usecase/debit"
	ucLoan "lending-backoffice/internal/usecase/loan"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"
)

var (
	testSecret = []byte("api-test-secret")
	fixedNow   = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

type apiEnv struct {
	e        *echo.Echo
	provider *providermock.MockProvider
	org1     string // org 1, actor 42
	org2     string
	operator string // org 1, operator claim
}

// newAPI wires the full router over sqlite and miniredis with a mocked
// payment provider.
func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	db := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	p := providermock.NewMockProvider(gomock.NewController(t))

	clock := func() time.Time { return fixedNow }
	repos := gormrepo.NewRepos(db)
	tx := gormrepo.NewGormUoW(db)
	loans := ucLoan.NewUsecase(repos, tx, cache.NewRedisCache(rdb)).WithClock(clock)
	debits := ucDebit.NewUsecase(repos, tx, p, ucDebit.Options{}).WithClock(clock)
	sweeper := ucDebit.NewSweeper(debits, ucDebit.SweepConfig{StaleAfter: 15 * time.Minute}, cache.NewRedisLocker(rdb))

	e := newEchoWithValidator()
	Register(e,
		NewHandler(nil),
		NewLoanHandler(loans),
		NewDebitHandler(debits, sweeper),
		middleware.RequireAuth(testSecret),
		middleware.IdempotencyMiddleware(rdb, time.Hour),
	)

	org1, err := middleware.IssueToken(testSecret, 1, 42, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	org2, err := middleware.IssueToken(testSecret, 2, 0, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	operator, err := middleware.IssueOperatorToken(testSecret, 1, 7, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return &apiEnv{e: e, provider: p, org1: org1, org2: org2, operator: operator}
}

func (a *apiEnv) do(t *testing.T, method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		r = mustJSON(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return out
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func wantCode(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, code, rec.Body.String())
	}
}

// seedLoan creates a loanee with an email and a 1050.00 auto-debit loan in org 1.
func (a *apiEnv) seedLoan(t *testing.T, extra map[string]any) (loaneeID uint64, l ucLoan.LoanDTO) {
	t.Helper()
	rec := a.do(t, stdhttp.MethodPost, "/api/v1/loanees", a.org1, map[string]any{
		"full_name": "Ada Obi",
		"email":     "ada@example.com",
	})
	wantCode(t, rec, stdhttp.StatusCreated)
	lee := decode[ucLoan.LoaneeDTO](t, rec)

	body := map[string]any{
		"loanee_id":          lee.ID,
		"amount":             "1000.00",
		"surcharge":          "50.00",
		"penalty":            "0",
		"loan_term_weeks":    4,
		"auto_debit_enabled": true,
	}
	for k, v := range extra {
		body[k] = v
	}
	rec = a.do(t, stdhttp.MethodPost, "/api/v1/loans", a.org1, body)
	wantCode(t, rec, stdhttp.StatusCreated)
	return lee.ID, decode[ucLoan.LoanDTO](t, rec)
}
