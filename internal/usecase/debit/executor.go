package debit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lending-backoffice/internal/domain/debit"
	"lending-backoffice/internal/domain/loan"
	"lending-backoffice/internal/domain/uow"
)

const maxErrorLen = 1000

// ExecuteItem claims the item, charges its mandate and records the outcome.
//
// The claim is a conditional update, so at most one executor holds an item;
// losing the claim returns ErrItemNotClaimable. Charge failures are written
// to the item (failed, last_error, next_attempt_at) and the item is returned
// without an error. A missing provider configuration releases the claim and
// is returned as an error.
func (u *Usecase) ExecuteItem(ctx context.Context, itemID uint64) (*debit.Item, error) {
	ok, err := u.repos.Items.Claim(ctx, itemID, u.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := u.repos.Items.GetByID(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, debit.ErrItemNotClaimable
	}

	it, err := u.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	// settlement writes must land even if the caller goes away mid-charge
	wctx := context.WithoutCancel(ctx)

	sched, ref, chargeErr := u.charge(ctx, it)
	if errors.Is(chargeErr, debit.ErrProviderNotConfigured) {
		if _, err := u.repos.Items.SetStatus(wctx, it.ID, []debit.ItemStatus{debit.ItemProcessing}, debit.ItemPending); err != nil {
			slog.Error("release claim failed", "item_id", it.ID, "error", err)
		}
		return nil, chargeErr
	}
	if chargeErr != nil {
		return u.recordFailure(wctx, it, chargeErr)
	}
	return u.recordSuccess(wctx, it, sched, ref)
}

// charge resolves the schedule, loan and mandate and calls the provider with
// the item's stored idempotency key.
func (u *Usecase) charge(ctx context.Context, it *debit.Item) (*debit.Schedule, string, error) {
	sched, err := u.repos.Schedules.GetByID(ctx, it.ScheduleID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve schedule: %w", err)
	}
	if _, err := u.repos.Loans.Get(ctx, sched.OrganizationID, sched.LoanID); err != nil {
		return nil, "", fmt.Errorf("resolve loan: %w", err)
	}
	mandate, err := u.repos.Mandates.GetByID(ctx, sched.MandateID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve mandate: %w", err)
	}
	if !mandate.Active {
		return nil, "", debit.ErrMandateInactive
	}

	minor, err := debit.ToMinorUnits(it.Amount)
	if err != nil {
		return nil, "", err
	}

	cctx, cancel := context.WithTimeout(ctx, u.chargeTimeout)
	defer cancel()
	res, err := u.provider.Charge(cctx, debit.ChargeRequest{
		MandateReference: mandate.MandateReference,
		AmountMinor:      minor,
		IdempotencyKey:   it.IdempotencyKey,
	})
	if err != nil {
		return nil, "", err
	}
	return sched, res.Reference, nil
}

func (u *Usecase) recordSuccess(ctx context.Context, it *debit.Item, sched *debit.Schedule, ref string) (*debit.Item, error) {
	it.Status = debit.ItemPaid
	it.ProviderTxnRef = &ref
	it.Attempts++
	it.LastError = nil
	it.NextAttemptAt = nil

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Items.Settle(ctx, it); err != nil {
			return err
		}
		return r.Payments.Create(ctx, &loan.Payment{
			OrganizationID: sched.OrganizationID,
			LoanID:         sched.LoanID,
			Amount:         it.Amount,
			Reference:      ref,
			Source:         loan.SourceDirectDebit,
		})
	})
	if err != nil {
		slog.Error("record paid item failed", "item_id", it.ID, "provider_ref", ref, "error", err)
		return nil, err
	}
	slog.Info("debit item paid", "item_id", it.ID, "loan_id", sched.LoanID, "provider_ref", ref)
	return it, nil
}

func (u *Usecase) recordFailure(ctx context.Context, it *debit.Item, cause error) (*debit.Item, error) {
	msg := cause.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	it.Status = debit.ItemFailed
	it.Attempts++
	it.LastError = &msg
	it.NextAttemptAt = u.policy.NextAttempt(it.Attempts, cause, u.now())

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Items.Settle(ctx, it)
	})
	if err != nil {
		slog.Error("record failed item failed", "item_id", it.ID, "error", err)
		return nil, err
	}
	slog.Warn("debit item failed",
		"item_id", it.ID,
		"attempts", it.Attempts,
		"retry_at", it.NextAttemptAt,
		"error", msg,
	)
	return it, nil
}
