package http

import (
	"errors"
	"net/http"
	"strconv"

	"lending-backoffice/internal/domain/debit"
	"lending-backoffice/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, loan.ErrLoaneeNotFound),
		errors.Is(err, debit.ErrMandateNotFound),
		errors.Is(err, debit.ErrScheduleNotFound),
		errors.Is(err, debit.ErrItemNotFound):
		return http.StatusNotFound

	case errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrInvalidStatus),
		errors.Is(err, loan.ErrInvalidInput),
		errors.Is(err, debit.ErrInvalidInstallments),
		errors.Is(err, debit.ErrMandateInactive),
		errors.Is(err, debit.ErrMandateMismatch),
		errors.Is(err, debit.ErrAutoDebitDisabled),
		errors.Is(err, debit.ErrLoanClosed),
		errors.Is(err, debit.ErrMissingEmail):
		return http.StatusBadRequest

	case errors.Is(err, debit.ErrMandateExists),
		errors.Is(err, debit.ErrScheduleExists),
		errors.Is(err, debit.ErrItemNotClaimable),
		errors.Is(err, debit.ErrItemStatusConflict):
		return http.StatusConflict

	case errors.Is(err, debit.ErrProviderNotConfigured):
		return http.StatusInternalServerError
	}

	// provider errors classify themselves
	var pe interface{ Retryable() bool }
	if errors.As(err, &pe) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c echo.Context, err error) error {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
		if !errors.Is(err, debit.ErrProviderNotConfigured) {
			return c.JSON(code, ErrorResponse{Error: "internal error"})
		}
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindValid binds the body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func badPathID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param"})
}
