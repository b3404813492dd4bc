package http

import (
	"lending-backoffice/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
)

// Register mounts the API on e. Every /api/v1 route sits behind auth; idem
// runs after auth because idempotency keys are scoped by organization. The
// sweep spans all organizations and needs an operator token.
func Register(e *echo.Echo, h *Handler, loans *LoanHandler, debits *DebitHandler, auth, idem echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)

	mw := []echo.MiddlewareFunc{auth}
	if idem != nil {
		mw = append(mw, idem)
	}
	api := e.Group("/api/v1", mw...)

	api.POST("/loanees", loans.CreateLoanee)

	api.POST("/loans", loans.CreateLoan)
	api.GET("/loans/due-today", loans.DueToday)
	api.GET("/loans/:id", loans.GetLoan)
	api.GET("/loans/:id/history", loans.History)
	api.POST("/loans/:id/transition", loans.Transition)

	api.POST("/mandates", debits.RegisterMandate)
	api.POST("/mandates/link", debits.MandateLink)

	api.POST("/debit/schedules", debits.CreateSchedule)
	api.GET("/debit/schedules/:id", debits.GetSchedule)
	api.POST("/debit/items/:id/execute", debits.ExecuteItem)
	api.POST("/debit/items/:id/requeue", debits.RequeueItem)
	api.POST("/debit/items/:id/cancel", debits.CancelItem)
	api.POST("/debit/sweep", debits.Sweep, middleware.RequireOperator())
}
