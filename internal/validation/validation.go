// Package validation turns untrusted request payloads into typed ledger inputs.
//
// Every function reports all failing fields at once through a
// core.ValidationError whose messages appear in the order the checks ran.
// Nothing in this package panics on malformed input.
package validation

import (
	"encoding/json"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"myduid/internal/core"
)

const (
	MsgRequired         = "Required"
	MsgExpectedNumber   = "Expected number"
	MsgExpectedString   = "Expected string"
	MsgInvalidDate      = "Invalid date"
	MsgAmountPositive   = "Amount must be positive"
	MsgCategoryRequired = "Category is required"
	MsgInvalidType      = "Invalid enum value. Expected 'INCOME' | 'EXPENSE'"
	MsgNameRequired     = "Name is required"
	MsgTargetMin        = "Target amount must be at least 1"
	MsgCurrentMin       = "Current amount cannot be negative"
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordMin      = "Password must be at least 6 characters"
)

const minPasswordLength = 6

// Transaction validates a request to record a transaction. A missing date
// defaults to now and a missing description to the empty string.
func Transaction(raw map[string]any, now time.Time) (core.TransactionInput, *core.ValidationError) {
	ve := core.NewValidationError()
	var in core.TransactionInput

	if amount, ok := requiredAmount(raw, "amount", ve); ok {
		if !amount.IsPositive() {
			ve.Add("amount", MsgAmountPositive)
		}
		in.Amount = amount
	}

	if category, ok := requiredString(raw, "category", ve); ok {
		if strings.TrimSpace(category) == "" {
			ve.Add("category", MsgCategoryRequired)
		}
		in.Category = strings.TrimSpace(category)
	}

	if v, present := lookup(raw, "type"); !present {
		ve.Add("type", MsgRequired)
	} else {
		s, _ := v.(string)
		t, ok := core.ParseTransactionType(s)
		if !ok {
			ve.Add("type", MsgInvalidType)
		}
		in.Type = t
	}

	if desc, ok := optionalString(raw, "description", ve); ok {
		in.Description = desc
	}

	in.Date = now
	if d, ok := optionalDate(raw, "date", ve); ok && d != nil {
		in.Date = *d
	}

	if err := ve.OrNil(); err != nil {
		return core.TransactionInput{}, err
	}
	return in, nil
}

// Goal validates a request to create a savings goal.
func Goal(raw map[string]any) (core.GoalInput, *core.ValidationError) {
	ve := core.NewValidationError()
	var in core.GoalInput

	if name, ok := requiredString(raw, "name", ve); ok {
		if strings.TrimSpace(name) == "" {
			ve.Add("name", MsgNameRequired)
		}
		in.Name = strings.TrimSpace(name)
	}

	if target, ok := requiredAmount(raw, "targetAmount", ve); ok {
		if target.LessThan(decimal.NewFromInt(1)) {
			ve.Add("targetAmount", MsgTargetMin)
		}
		in.TargetAmount = target
	}

	in.CurrentAmount = decimal.Zero
	if _, present := lookup(raw, "currentAmount"); present {
		if current, ok := coerceAmount(raw["currentAmount"]); !ok {
			ve.Add("currentAmount", MsgExpectedNumber)
		} else if current.IsNegative() {
			ve.Add("currentAmount", MsgCurrentMin)
		} else {
			in.CurrentAmount = current
		}
	}

	if d, ok := optionalDate(raw, "deadline", ve); ok {
		in.Deadline = d
	}

	if err := ve.OrNil(); err != nil {
		return core.GoalInput{}, err
	}
	return in, nil
}

// Registration validates a sign-up request. The email is normalised to lower case.
func Registration(raw map[string]any) (core.RegistrationInput, *core.ValidationError) {
	ve := core.NewValidationError()
	var in core.RegistrationInput

	if name, ok := requiredString(raw, "name", ve); ok {
		if strings.TrimSpace(name) == "" {
			ve.Add("name", MsgNameRequired)
		}
		in.Name = strings.TrimSpace(name)
	}

	if email, ok := requiredString(raw, "email", ve); ok {
		email = strings.TrimSpace(email)
		if !validEmail(email) {
			ve.Add("email", MsgInvalidEmail)
		}
		in.Email = strings.ToLower(email)
	}

	if password, ok := requiredString(raw, "password", ve); ok {
		if len([]rune(password)) < minPasswordLength {
			ve.Add("password", MsgPasswordMin)
		}
		in.Password = password
	}

	if err := ve.OrNil(); err != nil {
		return core.RegistrationInput{}, err
	}
	return in, nil
}

// Deposit validates the amount of a goal deposit.
func Deposit(raw map[string]any) (decimal.Decimal, *core.ValidationError) {
	ve := core.NewValidationError()
	amount, ok := requiredAmount(raw, "amount", ve)
	if ok && !amount.IsPositive() {
		ve.Add("amount", MsgAmountPositive)
	}
	if err := ve.OrNil(); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// PositiveAmount applies the deposit amount rule to an already typed value.
func PositiveAmount(amount decimal.Decimal) *core.ValidationError {
	if amount.IsPositive() {
		return nil
	}
	ve := core.NewValidationError()
	ve.Add("amount", MsgAmountPositive)
	return ve
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func lookup(raw map[string]any, key string) (any, bool) {
	if raw == nil {
		return nil, false
	}
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func requiredString(raw map[string]any, key string, ve *core.ValidationError) (string, bool) {
	v, present := lookup(raw, key)
	if !present {
		ve.Add(key, MsgRequired)
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		ve.Add(key, MsgExpectedString)
		return "", false
	}
	return s, true
}

func optionalString(raw map[string]any, key string, ve *core.ValidationError) (string, bool) {
	v, present := lookup(raw, key)
	if !present {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		ve.Add(key, MsgExpectedString)
		return "", false
	}
	return s, true
}

func requiredAmount(raw map[string]any, key string, ve *core.ValidationError) (decimal.Decimal, bool) {
	v, present := lookup(raw, key)
	if !present {
		ve.Add(key, MsgRequired)
		return decimal.Zero, false
	}
	d, ok := coerceAmount(v)
	if !ok {
		ve.Add(key, MsgExpectedNumber)
		return decimal.Zero, false
	}
	return d, true
}

func coerceAmount(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case string:
		d, err := core.ParseAmount(n)
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case int32:
		return decimal.NewFromInt32(n), true
	default:
		return decimal.Zero, false
	}
}

// optionalDate returns (nil, true) when the key is absent or blank.
func optionalDate(raw map[string]any, key string, ve *core.ValidationError) (*time.Time, bool) {
	v, present := lookup(raw, key)
	if !present {
		return nil, true
	}
	var (
		t  time.Time
		ok bool
	)
	switch d := v.(type) {
	case time.Time:
		t, ok = d, !d.IsZero()
	case string:
		if strings.TrimSpace(d) == "" {
			return nil, true
		}
		t, ok = ParseDate(d)
	case json.Number:
		if ms, err := strconv.ParseInt(d.String(), 10, 64); err == nil {
			t, ok = time.UnixMilli(ms).UTC(), true
		}
	case float64:
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			t, ok = time.UnixMilli(int64(d)).UTC(), true
		}
	case int64:
		t, ok = time.UnixMilli(d).UTC(), true
	case int:
		t, ok = time.UnixMilli(int64(d)).UTC(), true
	}
	if !ok {
		ve.Add(key, MsgInvalidDate)
		return nil, false
	}
	return &t, true
}

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
