package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/expense-tracker/internal/auth"
	"github.com/crucial707/expense-tracker/internal/middleware"
	"github.com/crucial707/expense-tracker/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ==========================
// Expense Handler
// ==========================
type ExpenseHandler struct {
	Expenses *services.ExpenseService
}

// createExpenseRequest keeps amount raw so a non-numeric value is reported
// against the field instead of as malformed JSON.
type createExpenseRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

// identity returns the caller set by middleware.Authenticate, writing 401 when absent.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		JSONError(w, "authentication required", http.StatusUnauthorized)
	}
	return id, ok
}

// ==========================
// Create Expense
// ==========================
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		JSONValidationError(w, "validation failed", map[string]string{"amount": "must be a number greater than 0"}, http.StatusBadRequest)
		return
	}

	e, err := h.Expenses.Create(r.Context(), id.UserID, services.CreateExpenseInput{
		Amount:      amount,
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

// Amount inputs longer than this, or with an exponent outside
// ±maxAmountExponent, are rejected before any arithmetic is done on them.
const (
	maxAmountLen      = 32
	maxAmountExponent = 20
)

var errAmountOutOfRange = errors.New("amount out of range")

// parseAmount accepts a JSON number or a numeric string. Missing and null read as zero.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, errAmountOutOfRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if e := d.Exponent(); e > maxAmountExponent || e < -maxAmountExponent {
		return decimal.Zero, errAmountOutOfRange
	}
	return d, nil
}

// ==========================
// List Expenses
// ==========================
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	list, err := h.Expenses.List(r.Context(), id.UserID, services.ListQuery{
		Page:      queryInt(q.Get("page")),
		Limit:     queryInt(q.Get("limit")),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Category:  q.Get("category"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// queryInt returns 0 for missing or non-numeric values so the service applies its default.
func queryInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// ==========================
// Get Expense
// ==========================
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	e, err := h.Expenses.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// ==========================
// Delete Expense
// ==========================
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.Expenses.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted"})
}

// ==========================
// Summaries
// ==========================
func (h *ExpenseHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	sum, err := h.Expenses.MonthlySummary(r.Context(), id.UserID, r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

func (h *ExpenseHandler) TotalSpending(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	total, err := h.Expenses.TotalSpending(r.Context(), id.UserID, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}
