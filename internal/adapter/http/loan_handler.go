package http

import (
	"net/http"

	"lending-backoffice/internal/adapter/middleware"
	"lending-backoffice/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) CreateLoanee(c echo.Context) error {
	var req loan.CreateLoaneeInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.CreateLoanee(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req loan.CreateLoanInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPathID(c, "id")
	}
	dto, err := h.uc.Get(c.Request().Context(), middleware.OrgID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) DueToday(c echo.Context) error {
	out, err := h.uc.DueToday(c.Request().Context(), middleware.OrgID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": out})
}

func (h *LoanHandler) History(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPathID(c, "id")
	}
	dto, err := h.uc.History(c.Request().Context(), middleware.OrgID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Transition moves the loan along the lifecycle. Illegal edges answer 400
// with the rejected "from -> to" pair in the message.
func (h *LoanHandler) Transition(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPathID(c, "id")
	}
	var req loan.TransitionInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	req.LoanID = id
	req.ActorUserID = middleware.ActorID(c)

	dto, err := h.uc.Transition(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
