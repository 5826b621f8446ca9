// Package api exposes the ledger over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/source"
)

const (
	maxUploadSize = 32 << 20 // 32 MB
	maxListLimit  = 1000
)

// Handler serves the ledger endpoints.
type Handler struct {
	ledger      *ledger.Ledger
	categorizer source.Categorizer
	uploadDir   string
	importOpts  ledger.ImportOptions
}

// NewHandler creates a Handler. Uploaded batches are staged in uploadDir and
// imported with opts unless the request overrides them.
func NewHandler(l *ledger.Ledger, uploadDir string, opts ledger.ImportOptions) *Handler {
	return &Handler{
		ledger:     l,
		uploadDir:  uploadDir,
		importOpts: opts,
	}
}

// UseCategorizer assigns categories to uploaded rows that arrive without one.
func (h *Handler) UseCategorizer(c source.Categorizer) {
	h.categorizer = c
}

// AdmitRequest is the body of POST /transactions. Value may be a JSON number
// or a string.
type AdmitRequest struct {
	Title    string          `json:"title"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Value    json.RawMessage `json:"value"`
}

// Create handles POST /transactions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	value, err := rawValue(body.Value)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	req, err := ledger.ParseAdmitRequest(body.Title, body.Type, value, body.Category)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	txn, err := h.ledger.Admit(r.Context(), req)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": newTransactionResponse(txn),
	})
}

// rawValue turns a JSON number or string into the text ParseValue expects.
func rawValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", common.NewValidationError("value", "must be a number or a string")
		}
		return s, nil
	}
	return string(raw), nil
}

// List handles GET /transactions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	txns, err := h.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionsListResponse{
		Transactions: newTransactionResponses(txns),
		Balance:      newBalanceResponse(summary),
	})
}

func parseFilter(r *http.Request) (service.TransactionFilter, error) {
	q := r.URL.Query()
	filter := service.TransactionFilter{CategoryID: q.Get("category_id")}

	if typ := q.Get("type"); typ != "" {
		t, err := model.ParseTransactionType(typ)
		if err != nil {
			return filter, common.NewValidationError("type", "must be income or outcome")
		}
		filter.Type = t
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.NewValidationError(field, "must be a non-negative integer")
	}
	return n, nil
}

// Delete handles DELETE /transactions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /transactions/import. The request carries a CSV batch
// in the multipart field "file". The staged copy is removed after a
// successful import and kept in the upload directory when the import fails.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseImportOptions(r)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer func() { _ = file.Close() }()

	path, err := h.stage(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to stage upload", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	src, err := source.CSVFile(path)
	if err != nil {
		_ = os.Remove(path)
		writeLedgerError(w, r, err)
		return
	}
	defer func() { _ = src.Close() }()

	var batch source.Source = src
	if h.categorizer != nil {
		batch = source.WithCategories(src, h.categorizer, "")
	}

	result, err := h.ledger.Import(r.Context(), batch, opts)
	if err != nil {
		slog.WarnContext(r.Context(), "Import failed, keeping staged upload",
			"path", src.Path(),
			"error", err)
		writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newImportResponse(result))
}

// parseImportOptions applies the balance_check and strict query overrides.
func (h *Handler) parseImportOptions(r *http.Request) (ledger.ImportOptions, error) {
	opts := h.importOpts
	opts.KeepSource = false

	q := r.URL.Query()
	if raw := q.Get("balance_check"); raw != "" {
		check, err := ledger.ParseBalanceCheck(raw)
		if err != nil {
			return opts, common.NewValidationError("balance_check", "must be none, net or running")
		}
		opts.BalanceCheck = check
	}
	if raw := q.Get("strict"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, common.NewValidationError("strict", "must be a boolean")
		}
		opts.Strict = strict
	}
	return opts, nil
}

func (h *Handler) stage(r io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.CreateTemp(h.uploadDir, "import-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	path := dst.Name()

	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}
	return path, nil
}

// Balance handles GET /balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(summary))
}

// Categories handles GET /categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.ledger.ListCategories(r.Context())
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": newCategoryResponses(cats),
	})
}
