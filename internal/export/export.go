// Package export renders a user's ledger snapshot as downloadable files.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"myduid/internal/core"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FilePrefix starts every generated file name.
const FilePrefix = "myduid_export"

const notAvailable = "N/A"

var (
	TransactionHeader = []string{"Date", "Type", "Category", "Amount", "Description"}
	GoalHeader        = []string{"Name", "Target", "Current", "Deadline"}
)

// ParseFormat accepts json and csv, case-insensitively. PDF and XLSX are
// rendered by clients from the JSON form.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Range selects how far back the export reaches. Zero means no date filter.
type Range int

const RangeAll Range = 0

// ParseRange accepts "7", "30", "90" (days) or "ALL".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return RangeAll, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid export range %q", s)
	}
	switch days {
	case 7, 30, 90:
		return Range(days), nil
	default:
		return 0, fmt.Errorf("invalid export range %q: must be 7, 30, 90 or ALL", s)
	}
}

func (r Range) String() string {
	if r == RangeAll {
		return "ALL"
	}
	return strconv.Itoa(int(r))
}

// Bounds returns the inclusive date filter ending at now, or nil for RangeAll.
func (r Range) Bounds(now time.Time) *core.DateRange {
	if r == RangeAll {
		return nil
	}
	return &core.DateRange{From: now.AddDate(0, 0, -int(r)), To: now}
}

type Options struct {
	Format              Format
	Range               Range
	IncludeTransactions bool
	IncludeGoals        bool
}

// DefaultOptions exports everything as JSON.
func DefaultOptions() Options {
	return Options{Format: FormatJSON, Range: RangeAll, IncludeTransactions: true, IncludeGoals: true}
}

// Snapshot is the data behind one export. A section that was not requested is null.
type Snapshot struct {
	UserID       string             `json:"-"`
	GeneratedAt  time.Time          `json:"exportedAt"`
	Range        string             `json:"range"`
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
}

// File is one rendered artefact.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName builds myduid_export_<YYYY-MM-DD>[_suffix].<ext>.
func FileName(day time.Time, suffix string, f Format) string {
	name := FilePrefix + "_" + day.Format(time.DateOnly)
	if suffix != "" {
		name += "_" + suffix
	}
	return name + "." + string(f)
}

// TransactionRows converts transactions to the tabular export layout, header first.
func TransactionRows(txs []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, TransactionHeader)
	for _, t := range txs {
		rows = append(rows, []string{
			t.Date.Format(time.DateOnly),
			string(t.Type),
			t.Category,
			core.FormatAmount(t.Amount),
			t.Description,
		})
	}
	return rows
}

// GoalRows converts goals to the tabular export layout, header first.
func GoalRows(goals []core.Goal) [][]string {
	rows := make([][]string, 0, len(goals)+1)
	rows = append(rows, GoalHeader)
	for _, g := range goals {
		deadline := notAvailable
		if g.Deadline != nil {
			deadline = g.Deadline.Format(time.DateOnly)
		}
		rows = append(rows, []string{
			g.Name,
			core.FormatAmount(g.TargetAmount),
			core.FormatAmount(g.CurrentAmount),
			deadline,
		})
	}
	return rows
}
