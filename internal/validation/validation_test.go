package validation

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestTransaction(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		fields map[string][]string
	}{
		{
			name: "valid with defaults",
			raw:  map[string]any{"amount": 12.5, "category": "Food", "type": "EXPENSE"},
		},
		{
			name: "amount as string with comma",
			raw:  map[string]any{"amount": "12,50", "category": "Food", "type": "INCOME"},
		},
		{
			name:   "missing everything",
			raw:    map[string]any{},
			fields: map[string][]string{"amount": {MsgRequired}, "category": {MsgRequired}, "type": {MsgRequired}},
		},
		{
			name:   "non-positive amount",
			raw:    map[string]any{"amount": 0, "category": "Food", "type": "EXPENSE"},
			fields: map[string][]string{"amount": {MsgAmountPositive}},
		},
		{
			name:   "negative amount",
			raw:    map[string]any{"amount": -3.2, "category": "Food", "type": "EXPENSE"},
			fields: map[string][]string{"amount": {MsgAmountPositive}},
		},
		{
			name:   "amount not a number",
			raw:    map[string]any{"amount": "ten", "category": "Food", "type": "EXPENSE"},
			fields: map[string][]string{"amount": {MsgExpectedNumber}},
		},
		{
			name:   "blank category",
			raw:    map[string]any{"amount": 1, "category": "  ", "type": "EXPENSE"},
			fields: map[string][]string{"category": {MsgCategoryRequired}},
		},
		{
			name:   "bad type",
			raw:    map[string]any{"amount": 1, "category": "Food", "type": "TRANSFER"},
			fields: map[string][]string{"type": {MsgInvalidType}},
		},
		{
			name:   "bad date",
			raw:    map[string]any{"amount": 1, "category": "Food", "type": "INCOME", "date": "yesterday"},
			fields: map[string][]string{"date": {MsgInvalidDate}},
		},
		{
			name:   "description wrong type",
			raw:    map[string]any{"amount": 1, "category": "Food", "type": "INCOME", "description": 4},
			fields: map[string][]string{"description": {MsgExpectedString}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verr := Transaction(tt.raw, now)
			if tt.fields == nil {
				if verr != nil {
					t.Fatalf("expected no error, got %v", verr.Fields)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected errors %v, got none", tt.fields)
			}
			if !reflect.DeepEqual(verr.Fields, tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
		})
	}
}

func TestTransactionDefaults(t *testing.T) {
	in, verr := Transaction(map[string]any{"amount": json.Number("19.99"), "category": "Food", "type": "EXPENSE"}, now)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if !in.Date.Equal(now) {
		t.Errorf("date = %v, want %v", in.Date, now)
	}
	if in.Description != "" {
		t.Errorf("description = %q, want empty", in.Description)
	}
	if !in.Amount.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("amount = %s", in.Amount)
	}
	if in.Type != core.Expense {
		t.Errorf("type = %s", in.Type)
	}
}

func TestTransactionDateFormats(t *testing.T) {
	want := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, v := range []any{"2025-03-04", "2025-03-04T00:00:00Z", want, float64(want.UnixMilli())} {
		in, verr := Transaction(map[string]any{"amount": 1, "category": "c", "type": "INCOME", "date": v}, now)
		if verr != nil {
			t.Fatalf("%v: unexpected error %v", v, verr.Fields)
		}
		if !in.Date.Equal(want) {
			t.Errorf("%v: date = %v, want %v", v, in.Date, want)
		}
	}
}

func TestGoal(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		fields map[string][]string
	}{
		{name: "valid", raw: map[string]any{"name": "Bike", "targetAmount": "500"}},
		{name: "valid with deadline", raw: map[string]any{"name": "Bike", "targetAmount": 500, "deadline": "2026-01-01"}},
		{
			name:   "target below one",
			raw:    map[string]any{"name": "Bike", "targetAmount": 0.5},
			fields: map[string][]string{"targetAmount": {MsgTargetMin}},
		},
		{
			name:   "empty name",
			raw:    map[string]any{"name": "", "targetAmount": 10},
			fields: map[string][]string{"name": {MsgNameRequired}},
		},
		{
			name:   "negative current",
			raw:    map[string]any{"name": "Bike", "targetAmount": 10, "currentAmount": -1},
			fields: map[string][]string{"currentAmount": {MsgCurrentMin}},
		},
		{
			name:   "missing target",
			raw:    map[string]any{"name": "Bike"},
			fields: map[string][]string{"targetAmount": {MsgRequired}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, verr := Goal(tt.raw)
			if tt.fields == nil {
				if verr != nil {
					t.Fatalf("expected no error, got %v", verr.Fields)
				}
				if !in.CurrentAmount.IsZero() {
					t.Errorf("current amount should default to zero, got %s", in.CurrentAmount)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected errors %v, got none", tt.fields)
			}
			if !reflect.DeepEqual(verr.Fields, tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
		})
	}
}

func TestRegistration(t *testing.T) {
	in, verr := Registration(map[string]any{"name": "Ada", "email": "Ada@Example.com", "password": "secret"})
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr.Fields)
	}
	if in.Email != "ada@example.com" {
		t.Errorf("email = %q, want lower-cased", in.Email)
	}

	_, verr = Registration(map[string]any{"name": "Ada", "email": "not-an-email", "password": "12345"})
	if verr == nil {
		t.Fatalf("expected validation errors")
	}
	want := map[string][]string{"email": {MsgInvalidEmail}, "password": {MsgPasswordMin}}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Errorf("fields = %v, want %v", verr.Fields, want)
	}

	for _, bad := range []string{"Ada <ada@example.com>", "ada@localhost", "@example.com", "ada @example.com"} {
		if _, verr := Registration(map[string]any{"name": "Ada", "email": bad, "password": "secret"}); verr == nil || !verr.Has("email") {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestDeposit(t *testing.T) {
	amount, verr := Deposit(map[string]any{"amount": "25.10"})
	if verr != nil || !amount.Equal(decimal.RequireFromString("25.10")) {
		t.Fatalf("amount = %s, err = %v", amount, verr)
	}
	for _, raw := range []map[string]any{{}, {"amount": 0}, {"amount": "-1"}, {"amount": true}, nil} {
		if _, verr := Deposit(raw); verr == nil {
			t.Errorf("%v should be rejected", raw)
		}
	}
}
