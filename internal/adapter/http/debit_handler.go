package http

import (
	"context"
	"net/http"

	"lending-backoffice/internal/adapter/middleware"
	"lending-backoffice/internal/usecase/debit"

	"github.com/labstack/echo/v4"
)

type DebitHandler struct {
	uc      *debit.Usecase
	sweeper *debit.Sweeper
}

func NewDebitHandler(uc *debit.Usecase, sweeper *debit.Sweeper) *DebitHandler {
	return &DebitHandler{uc: uc, sweeper: sweeper}
}

func (h *DebitHandler) RegisterMandate(c echo.Context) error {
	var req debit.RegisterMandateInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.RegisterMandate(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *DebitHandler) MandateLink(c echo.Context) error {
	var req debit.MandateLinkInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.MandateLink(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DebitHandler) CreateSchedule(c echo.Context) error {
	var req debit.CreateScheduleInput
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.CreateSchedule(c.Request().Context(), middleware.OrgID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *DebitHandler) GetSchedule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPathID(c, "id")
	}
	dto, err := h.uc.GetSchedule(c.Request().Context(), middleware.OrgID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ExecuteItem charges one item now. A declined charge is still 200: the
// item comes back failed with last_error set.
func (h *DebitHandler) ExecuteItem(c echo.Context) error {
	return h.itemAction(c, h.uc.ExecuteItemForOrg)
}

func (h *DebitHandler) RequeueItem(c echo.Context) error {
	return h.itemAction(c, h.uc.RequeueItem)
}

func (h *DebitHandler) CancelItem(c echo.Context) error {
	return h.itemAction(c, h.uc.CancelItem)
}

type itemFn func(ctx context.Context, orgID, itemID uint64) (*debit.ItemDTO, error)

func (h *DebitHandler) itemAction(c echo.Context, fn itemFn) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPathID(c, "id")
	}
	dto, err := fn(c.Request().Context(), middleware.OrgID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Sweep runs one sweep batch across all organizations. Operators only.
func (h *DebitHandler) Sweep(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.sweeper.RecoverStale(ctx); err != nil {
		return respondError(c, err)
	}
	res, err := h.sweeper.Run(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
