package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TransactionResponse is the wire form of a committed transaction.
type TransactionResponse struct {
	CreatedAt  time.Time `json:"created_at"`
	CategoryID *string   `json:"category_id"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Value      string    `json:"value"`
	Category   string    `json:"category,omitempty"`
}

// BalanceResponse is the income/outcome breakdown.
type BalanceResponse struct {
	Income  string `json:"income"`
	Outcome string `json:"outcome"`
	Total   string `json:"total"`
}

// TransactionsListResponse represents the response for GET /transactions.
type TransactionsListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Balance      BalanceResponse       `json:"balance"`
}

// CategoryResponse is the wire form of a category.
type CategoryResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SkippedResponse is a source row left out of an import.
type SkippedResponse struct {
	Reason string `json:"reason"`
	Line   int    `json:"line"`
}

// ImportResponse represents the response for POST /transactions/import.
type ImportResponse struct {
	Balance       string                `json:"balance"`
	Transactions  []TransactionResponse `json:"transactions"`
	Skipped       []SkippedResponse     `json:"skipped"`
	NewCategories []CategoryResponse    `json:"new_categories"`
}

func newTransactionResponse(txn *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         txn.ID,
		Title:      txn.Title,
		Type:       string(txn.Type),
		Value:      txn.Value.String(),
		CategoryID: txn.CategoryID,
		Category:   txn.CategoryTitle,
		CreatedAt:  txn.CreatedAt,
	}
}

func newTransactionResponses(txns []model.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, newTransactionResponse(&txns[i]))
	}
	return out
}

func newBalanceResponse(b model.Balance) BalanceResponse {
	return BalanceResponse{
		Income:  b.Income.String(),
		Outcome: b.Outcome.String(),
		Total:   b.Total.String(),
	}
}

func newCategoryResponses(cats []model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryResponse{ID: c.ID, Title: c.Title})
	}
	return out
}

func newImportResponse(result *ledger.ImportResult) ImportResponse {
	skipped := make([]SkippedResponse, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, SkippedResponse{Line: s.Line, Reason: s.Reason})
	}
	return ImportResponse{
		Balance:       result.Balance.String(),
		Transactions:  newTransactionResponses(result.Transactions),
		Skipped:       skipped,
		NewCategories: newCategoryResponses(result.NewCategories),
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}

// statusFor maps a ledger error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeLedgerError reports err to the client. Internal failures are logged
// and replaced with a generic message.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSONError(w, status, "internal error")
		return
	}
	writeJSONError(w, status, err.Error())
}
