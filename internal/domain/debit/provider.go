package debit

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProviderNotConfigured = errors.New("payment provider is not configured")

type ChargeRequest struct {
	MandateReference string
	AmountMinor      int64
	IdempotencyKey   string
}

type ChargeResult struct {
	Reference string
}

type MandateLinkRequest struct {
	Email string
	Name  string
}

//go:generate mockgen -source=provider.go -destination=../../testutil/providermock/provider_mock.go -package=providermock
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	CreateMandateLink(ctx context.Context, req MandateLinkRequest) (string, error)
}

// ToMinorUnits converts an amount to integer cents without rounding.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrAmountPrecision
	}
	return minor.IntPart(), nil
}
