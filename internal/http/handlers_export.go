package http

import (
	"fmt"
	"net/http"

	"myduid/internal/core"
	"myduid/internal/export"
)

// handleExport streams the export as a download. CSV with both sections
// is zipped into a single attachment.
func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	ve := core.NewValidationError()
	opts := parseExportOptions(r.URL.Query(), ve)
	if err := ve.OrNil(); err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	files, err := a.svc.Export.Export(r.Context(), caller, opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	file := files[0]
	if len(files) > 1 {
		if file, err = export.Bundle(a.now(), files); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
