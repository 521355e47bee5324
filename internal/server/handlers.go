package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finhub-tools/invoice-qc/internal/common"
	"github.com/finhub-tools/invoice-qc/internal/entity"
	"github.com/finhub-tools/invoice-qc/internal/export"
	"github.com/finhub-tools/invoice-qc/internal/extract"
	"github.com/finhub-tools/invoice-qc/internal/repository"
	"github.com/finhub-tools/invoice-qc/internal/schema"
	"github.com/finhub-tools/invoice-qc/internal/validate"
)

// maxBatchBytes caps an incoming batch payload.
const maxBatchBytes = 16 << 20

// Handler exposes the validation engine over HTTP. The runs repository is
// optional; without it validation still works, only run history is off.
type Handler struct {
	extractor *extract.Extractor
	exporter  *export.Service
	runs      repository.RunRepository
	logger    *slog.Logger
}

func NewHandler(extractor *extract.Extractor, exporter *export.Service, runs repository.RunRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{extractor: extractor, exporter: exporter, runs: runs, logger: logger}
}

// Routes builds the HTTP routing table.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(h.logger))

	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", h.validateBatch)
		r.Post("/extract-and-validate", h.extractAndValidate)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{id}", h.getRun)
		r.Get("/runs/{id}/export", h.exportRun)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateBatch validates a JSON array of invoice records and returns the
// batch report. A structurally malformed payload aborts the whole call with
// 400; data defects never do.
func (h *Handler) validateBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	records, err := schema.DecodeBatch(body)
	if err != nil {
		h.writeMappedError(w, r, err)
		return
	}

	report := validate.ValidateBatch(records)
	h.saveRun(r, "api", report)
	writeJSON(w, http.StatusOK, report)
}

// extractDocument is one named text document submitted for extraction.
type extractDocument struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// extractAndValidate extracts invoice records from submitted document texts
// and validates the resulting batch. Mirrors the upload endpoint of the
// original workflow, with text in place of binary documents.
func (h *Handler) extractAndValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	var docs []extractDocument
	if err := json.Unmarshal(body, &docs); err != nil {
		h.writeMappedError(w, r, common.InvalidInputErrorf("decode documents payload: %v", err))
		return
	}

	records := make([]entity.Invoice, 0, len(docs))
	for _, doc := range docs {
		inv := h.extractor.ParseInvoiceText(doc.Text)
		// Use the document name as a fallback identifier.
		if inv.InvoiceNumber == nil && doc.Name != "" {
			name := doc.Name
			inv.InvoiceNumber = &name
		}
		records = append(records, inv)
	}

	report := validate.ValidateBatch(records)
	h.saveRun(r, "api:extract", report)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotImplemented, "run history is not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeMappedError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*repository.ValidationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// exportRun streams a stored run's report as an XLSX workbook.
func (h *Handler) exportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	data, err := h.exporter.ReportXLSX(&run.Report)
	if err != nil {
		h.logger.Error("xlsx export failed", "run_id", run.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "validation-run-"+run.ID.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*repository.ValidationRun, bool) {
	if h.runs == nil {
		writeError(w, http.StatusNotImplemented, "run history is not configured")
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be a UUID")
		return nil, false
	}
	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.writeMappedError(w, r, err)
		return nil, false
	}
	return run, true
}

// saveRun persists a validation run when a repository is configured.
// Persistence failures are logged, not surfaced: the report was computed
// and belongs to the caller either way.
func (h *Handler) saveRun(r *http.Request, source string, report *entity.BatchReport) {
	if h.runs == nil {
		return
	}
	if _, err := h.runs.SaveRun(r.Context(), source, report); err != nil {
		h.logger.Error("failed to persist validation run", "source", source, "error", err)
	}
}

func (h *Handler) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON renders indented JSON so the API and CLI surfaces produce
// byte-identical reports for identical input.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
