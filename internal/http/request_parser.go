package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"myduid/internal/core"
	"myduid/internal/export"
	"myduid/internal/validation"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// decodeBody reads a JSON object. Numbers stay json.Number so amounts keep
// their exact decimal text. An empty body decodes to an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	raw := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return raw, nil
}

// parseLimit reads ?limit=. Absent means def; 0 means no cap.
func parseLimit(q url.Values, def int, ve *core.ValidationError) int {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		ve.Add("limit", validation.MsgExpectedNumber)
		return def
	}
	return n
}

// parseDateRange reads ?from=&to=. The filter applies only when both bounds
// are present. A date-only upper bound covers that whole day.
func parseDateRange(q url.Values, ve *core.ValidationError) *core.DateRange {
	fromStr := strings.TrimSpace(q.Get("from"))
	toStr := strings.TrimSpace(q.Get("to"))
	if fromStr == "" && toStr == "" {
		return nil
	}

	from, okFrom := validation.ParseDate(fromStr)
	if fromStr != "" && !okFrom {
		ve.Add("from", validation.MsgInvalidDate)
	}
	to, okTo := validation.ParseDate(toStr)
	if toStr != "" && !okTo {
		ve.Add("to", validation.MsgInvalidDate)
	}
	if !okFrom || !okTo {
		return nil
	}
	if len(toStr) == len(time.DateOnly) {
		to = to.Add(24*time.Hour - time.Millisecond)
	}
	return &core.DateRange{From: from, To: to}
}

// parseMonths reads ?months=; zero lets the statistics engine pick its default.
func parseMonths(q url.Values, ve *core.ValidationError) int {
	v := strings.TrimSpace(q.Get("months"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 120 {
		ve.Add("months", validation.MsgExpectedNumber)
		return 0
	}
	return n
}

// parseExportOptions reads ?format=&range=&transactions=&goals=.
// Both sections default to included.
func parseExportOptions(q url.Values, ve *core.ValidationError) export.Options {
	opts := export.DefaultOptions()

	if f, err := export.ParseFormat(q.Get("format")); err != nil {
		ve.Add("format", err.Error())
	} else {
		opts.Format = f
	}
	if rg, err := export.ParseRange(q.Get("range")); err != nil {
		ve.Add("range", err.Error())
	} else {
		opts.Range = rg
	}
	opts.IncludeTransactions = parseBool(q, "transactions", true, ve)
	opts.IncludeGoals = parseBool(q, "goals", true, ve)
	return opts
}

func parseBool(q url.Values, key string, def bool, ve *core.ValidationError) bool {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		ve.Add(key, "Expected boolean")
		return def
	}
	return b
}
