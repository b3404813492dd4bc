package debit

import "errors"

var (
	ErrScheduleNotFound    = errors.New("debit schedule not found")
	ErrItemNotFound        = errors.New("debit schedule item not found")
	ErrMandateNotFound     = errors.New("mandate not found")
	ErrMandateInactive     = errors.New("mandate is not active")
	ErrMandateMismatch     = errors.New("mandate does not belong to the loan's loanee")
	ErrMandateExists       = errors.New("mandate reference already registered")
	ErrScheduleExists      = errors.New("debit schedule already exists for loan and mandate")
	ErrAutoDebitDisabled   = errors.New("auto debit is not enabled for loan")
	ErrLoanClosed          = errors.New("loan is already closed")
	ErrInvalidInstallments = errors.New("total payable cannot be split into the requested installments")
	ErrItemNotClaimable    = errors.New("debit item is not claimable")
	ErrItemStatusConflict  = errors.New("debit item status does not allow this operation")
	ErrAmountPrecision     = errors.New("amount has sub-minor-unit precision")
	ErrMissingEmail        = errors.New("loanee requires an email for a mandate link")
)
