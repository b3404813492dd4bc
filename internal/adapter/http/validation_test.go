package http

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalValidation(t *testing.T) {
	type P struct {
		Amount decimal.Decimal `json:"amount" validate:"decpos,dec2"`
		Fee    decimal.Decimal `json:"fee" validate:"decnonneg,dec2"`
	}
	cv := NewValidator()
	d := decimal.RequireFromString

	for _, p := range []P{
		{Amount: d("0.01"), Fee: d("0")},
		{Amount: d("1000000.50"), Fee: d("12.3")},
		{Amount: d("5"), Fee: d("0.00")},
	} {
		if err := cv.Validate(p); err != nil {
			t.Fatalf("expected valid %+v, got %v", p, err)
		}
	}

	tests := []struct {
		p      P
		field  string
		substr string
	}{
		{P{Amount: d("0")}, "amount", "greater than 0"},
		{P{Amount: d("-1")}, "amount", "greater than 0"},
		{P{Amount: d("1.005")}, "amount", "2 decimal places"},
		{P{Amount: d("1"), Fee: d("-0.01")}, "fee", "not be negative"},
		{P{Amount: d("1"), Fee: d("0.001")}, "fee", "2 decimal places"},
	}
	for _, tt := range tests {
		err := cv.Validate(tt.p)
		if err == nil {
			t.Fatalf("expected error for %+v", tt.p)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, tt.field, tt.substr) {
			t.Fatalf("want %s/%q for %+v, got %+v", tt.field, tt.substr, tt.p, fe)
		}
	}
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	type P struct {
		LoaneeID  uint64 `json:"loanee_id" validate:"required"`
		StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Internal  string `json:"-" validate:"required"`
	}
	err := NewValidator().Validate(P{StartDate: "2026/03/02"})
	fe := ToFieldErrors(err)

	if !containsFieldMsg(fe, "loanee_id", "is required") {
		t.Fatalf("missing loanee_id: %+v", fe)
	}
	if !containsFieldMsg(fe, "start_date", "2006-01-02") {
		t.Fatalf("missing start_date: %+v", fe)
	}
	if !containsFieldMsg(fe, "Internal", "is required") {
		t.Fatalf("json:\"-\" fields fall back to the Go name: %+v", fe)
	}
}

func TestRangeMessages(t *testing.T) {
	type P struct {
		N int `json:"n" validate:"min=1,max=3"`
	}
	cv := NewValidator()
	if fe := ToFieldErrors(cv.Validate(P{N: 0})); !containsFieldMsg(fe, "n", "greater than or equal to 1") {
		t.Fatalf("min: %+v", fe)
	}
	if fe := ToFieldErrors(cv.Validate(P{N: 9})); !containsFieldMsg(fe, "n", "at most 3") {
		t.Fatalf("max: %+v", fe)
	}
}

func TestToFieldErrors_NonValidationError(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 || fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected: %+v", fe)
	}
}
