package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrEmptyExport = errors.New("nothing selected for export")

// Render produces the files for snap in the requested format. JSON yields a
// single document; CSV yields one file per included section.
func Render(snap Snapshot, opts Options) ([]File, error) {
	if !opts.IncludeTransactions && !opts.IncludeGoals {
		return nil, ErrEmptyExport
	}
	day := snap.GeneratedAt

	switch opts.Format {
	case FormatJSON, "":
		var buf bytes.Buffer
		if err := WriteJSON(&buf, snap); err != nil {
			return nil, err
		}
		return []File{{Name: FileName(day, "", FormatJSON), ContentType: "application/json", Data: buf.Bytes()}}, nil

	case FormatCSV:
		var files []File
		if opts.IncludeTransactions {
			var buf bytes.Buffer
			if err := WriteCSV(&buf, TransactionRows(snap.Transactions)); err != nil {
				return nil, fmt.Errorf("render transactions: %w", err)
			}
			files = append(files, File{Name: FileName(day, "transactions", FormatCSV), ContentType: "text/csv", Data: buf.Bytes()})
		}
		if opts.IncludeGoals {
			var buf bytes.Buffer
			if err := WriteCSV(&buf, GoalRows(snap.Goals)); err != nil {
				return nil, fmt.Errorf("render goals: %w", err)
			}
			files = append(files, File{Name: FileName(day, "goals", FormatCSV), ContentType: "text/csv", Data: buf.Bytes()})
		}
		return files, nil

	default:
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Bundle packs several files into one zip archive named after the export day.
func Bundle(day time.Time, files []File) (File, error) {
	if len(files) == 0 {
		return File{}, ErrEmptyExport
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return File{}, fmt.Errorf("add %s to archive: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return File{}, fmt.Errorf("write %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, fmt.Errorf("close archive: %w", err)
	}

	return File{Name: FilePrefix + "_" + day.Format(time.DateOnly) + ".zip", ContentType: "application/zip", Data: buf.Bytes()}, nil
}
