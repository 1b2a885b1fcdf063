package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/crucial707/expense-tracker/internal/metrics"
	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/crucial707/expense-tracker/internal/repo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within a postgres integer OFFSET.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Amounts are stored as NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

const maxAmountDigits = 12

// ExpenseStore is the owner-scoped persistence used by ExpenseService.
// Every method must restrict reads and writes to the given user.
type ExpenseStore interface {
	Create(ctx context.Context, e *models.Expense) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, f repo.ExpenseFilter, limit, offset int) ([]models.Expense, error)
	Count(ctx context.Context, f repo.ExpenseFilter) (int, error)
	SumByCategory(ctx context.Context, f repo.ExpenseFilter) ([]models.CategoryTotal, error)
	Sum(ctx context.Context, f repo.ExpenseFilter) (decimal.Decimal, error)
}

type CreateExpenseInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"required,max=64"`
	Date        string          `json:"date" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
}

// ListQuery holds list parameters. Zero Page or Limit means the default.
type ListQuery struct {
	Page      int
	Limit     int
	StartDate string
	EndDate   string
	Category  string
}

type ExpenseList struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Expenses []models.Expense `json:"expenses"`
}

type MonthlySummary struct {
	Month     string                 `json:"month"`
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	Breakdown []models.CategoryTotal `json:"breakdown"`
}

// ExpenseService applies the expense rules on top of an ExpenseStore.
type ExpenseService struct {
	store    ExpenseStore
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
}

// NewExpenseService returns a service that interprets dates in loc (time.Local when nil).
func NewExpenseService(store ExpenseStore, loc *time.Location) *ExpenseService {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseService{
		store:    store,
		validate: newValidator(),
		loc:      loc,
		now:      time.Now,
	}
}

// Create validates in and stores a new expense owned by userID.
func (s *ExpenseService) Create(ctx context.Context, userID uuid.UUID, in CreateExpenseInput) (*models.Expense, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)

	fields := map[string]string{}
	if err := checkStruct(s.validate, in); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		fields = ve.Fields
	}

	// Bound the magnitude before Round or Cmp; both rescale the coefficient.
	magnitude := in.Amount.NumDigits() + int(in.Amount.Exponent())
	switch {
	case !in.Amount.IsPositive():
		fields["amount"] = "must be a number greater than 0"
	case magnitude > maxAmountDigits+1:
		fields["amount"] = "is too large"
	case magnitude < -2:
		fields["amount"] = "must have at most 2 decimal places"
	case in.Amount.GreaterThanOrEqual(maxAmount):
		fields["amount"] = "is too large"
	case !in.Amount.Equal(in.Amount.Round(2)):
		fields["amount"] = "must have at most 2 decimal places"
	}

	var date time.Time
	if _, bad := fields["date"]; !bad {
		d, _, err := parseDate(in.Date, s.loc)
		if err != nil {
			fields["date"] = "must be a valid date"
		}
		date = d
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Message: "validation failed", Fields: fields}
	}
	if date.After(s.now()) {
		return nil, ErrFutureDate
	}

	e := &models.Expense{
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        date,
		Description: in.Description,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	metrics.ExpensesCreated.Inc()
	slog.InfoContext(ctx, "expense created", "expense_id", e.ID, "user_id", userID, "category", e.Category)
	return e, nil
}

// List returns one page of the caller's expenses plus the total match count.
func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID, q ListQuery) (*ExpenseList, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	f, err := s.rangeFilter(userID, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	f.Category = strings.TrimSpace(q.Category)

	items, err := s.store.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	return &ExpenseList{Total: total, Page: page, Limit: limit, Expenses: items}, nil
}

// Get returns one of the caller's expenses. Ids owned by someone else are reported as not found.
func (s *ExpenseService) Get(ctx context.Context, userID uuid.UUID, rawID string) (*models.Expense, error) {
	id, err := parseExpenseID(rawID)
	if err != nil {
		return nil, err
	}

	e, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return e, nil
}

// Delete permanently removes one of the caller's expenses.
func (s *ExpenseService) Delete(ctx context.Context, userID uuid.UUID, rawID string) error {
	id, err := parseExpenseID(rawID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}

	metrics.ExpensesDeleted.Inc()
	slog.InfoContext(ctx, "expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

// MonthlySummary totals the caller's spending per category for month ("YYYY-MM",
// current month when empty). Categories without expenses are left out.
func (s *ExpenseService) MonthlySummary(ctx context.Context, userID uuid.UUID, month string) (*MonthlySummary, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		month = s.now().In(s.loc).Format("2006-01")
	}

	first, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, invalidField("month", "must be in YYYY-MM format")
	}
	start := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)

	breakdown, err := s.store.SumByCategory(ctx, repo.ExpenseFilter{UserID: userID, From: &start, To: &end})
	if err != nil {
		return nil, err
	}

	return &MonthlySummary{Month: month, Start: start, End: end, Breakdown: breakdown}, nil
}

// TotalSpending sums the caller's expenses, optionally bounded by inclusive dates.
func (s *ExpenseService) TotalSpending(ctx context.Context, userID uuid.UUID, startDate, endDate string) (decimal.Decimal, error) {
	f, err := s.rangeFilter(userID, startDate, endDate)
	if err != nil {
		return decimal.Zero, err
	}
	return s.store.Sum(ctx, f)
}

// rangeFilter parses optional inclusive bounds. A date-only end bound covers that whole day.
func (s *ExpenseService) rangeFilter(userID uuid.UUID, startDate, endDate string) (repo.ExpenseFilter, error) {
	f := repo.ExpenseFilter{UserID: userID}
	fields := map[string]string{}

	if v := strings.TrimSpace(startDate); v != "" {
		from, _, err := parseDate(v, s.loc)
		if err != nil {
			fields["startDate"] = "must be a valid date"
		} else {
			f.From = &from
		}
	}
	if v := strings.TrimSpace(endDate); v != "" {
		to, dateOnly, err := parseDate(v, s.loc)
		if err != nil {
			fields["endDate"] = "must be a valid date"
		} else {
			if dateOnly {
				to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			f.To = &to
		}
	}

	if len(fields) > 0 {
		return f, &ValidationError{Message: "validation failed", Fields: fields}
	}
	return f, nil
}

// normalizePage clamps page to 1..MaxPage and limit to 1..MaxLimit, using defaults for non-positive values.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func parseExpenseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, invalid("invalid expense id")
	}
	return id, nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDate accepts YYYY-MM-DD and ISO 8601 date-times. Values without a
// zone are read in loc. dateOnly reports whether the value had no time part.
func parseDate(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err = time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, err
}
