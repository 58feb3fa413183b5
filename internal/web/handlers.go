package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/JonMunkholm/BeneficiaryImport/internal/logging"
	"github.com/JonMunkholm/BeneficiaryImport/internal/sheet"
	"github.com/JonMunkholm/BeneficiaryImport/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to a temp file.
const multipartMemory = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

// handleStageImport decodes an uploaded spreadsheet, validates it and opens
// an import session. Validation errors are part of a successful response.
func (s *Server) handleStageImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, sheet.ErrFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	m, err := sheet.Decode(file, header.Filename, maxSize)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
		return
	}

	summary, err := s.service.Stage(header.Filename, m)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
		return
	}

	logging.WithFields(r.Context(), "import_id", summary.ID, "file", summary.FileName).
		Info("upload staged", "rows", summary.Rows, "validation_errors", len(summary.ValidationErrors))

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		templates.ImportSummary(summary).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// handleImportHistory lists recently finished imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.cfg.Import.HistoryLimit)

	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ImportHistory(records).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Get(chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	s.respondSummary(w, r, summary)
}

func (s *Server) handleStripInvalid(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.StripInvalid(chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	s.respondSummary(w, r, summary)
}

func (s *Server) respondSummary(w http.ResponseWriter, r *http.Request, summary core.ImportSummary) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ImportSummary(summary).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleInvalidRows downloads the rows that failed validation, with the
// original header, as xlsx (default) or csv.
func (s *Server) handleInvalidRows(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	format := sheet.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = sheet.FormatXLSX
	}
	if format != sheet.FormatXLSX && format != sheet.FormatCSV {
		s.respondError(w, r, fmt.Errorf("%w: %s", sheet.ErrUnsupportedType, format), http.StatusBadRequest)
		return
	}

	summary, err := s.service.Get(importID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	rows, err := s.service.InvalidRows(importID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	var buf bytes.Buffer
	if err := sheet.WriteErrorExtract(&buf, rows, format); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	base := strings.TrimSuffix(summary.FileName, filepath.Ext(summary.FileName))
	if base == "" {
		base = "import"
	}
	filename := fmt.Sprintf("%s_errors.%s", base, format)

	w.Header().Set("Content-Type", sheet.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Write(buf.Bytes())
}

// handleRunImport starts the batch. It is refused with 409 while the session
// still has validation errors.
func (s *Server) handleRunImport(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Start(ctx, importID); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	progress, err := s.service.Progress(importID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusAccepted, progress)
}

// handleImportProgress streams progress via Server-Sent Events.
// Supports resumption via Last-Event-ID or the lastEventId query parameter;
// the event ID is the number of processed rows.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	progressCh, err := s.service.Subscribe(importID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last core.Progress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = progress

			// Skip rows the client already saw, but always pass phase changes.
			if progress.Phase == core.PhaseRunning && progress.Processed <= lastEventID {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Processed, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportReport waits for the batch to finish and returns its report.
func (s *Server) handleImportReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Report(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusConflict))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ReportSummary(*report).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleTemplate downloads the sample workbook.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sheet.WriteTemplate(&buf); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", sheet.ContentType(sheet.FormatXLSX))
	w.Header().Set("Content-Disposition", `attachment; filename="beneficiary_import_template.xlsx"`)
	w.Write(buf.Bytes())
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
