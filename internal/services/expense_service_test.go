package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func newTestExpenseService() (*ExpenseService, *memExpenses) {
	store := &memExpenses{}
	svc := NewExpenseService(store, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func mustCreate(t *testing.T, svc *ExpenseService, userID uuid.UUID, amount, category, date string) string {
	t.Helper()
	e, err := svc.Create(context.Background(), userID, CreateExpenseInput{
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     date,
	})
	require.NoError(t, err)
	return e.ID.String()
}

func TestCreate_RoundTrip(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateExpenseInput{
		Amount:      decimal.RequireFromString("12.34"),
		Category:    "Food",
		Date:        "2024-03-05",
		Description: "  lunch ",
	})
	require.NoError(t, err)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "lunch", created.Description)

	got, err := svc.Get(ctx, userID, created.ID.String())
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, "Food", got.Category)
	assert.True(t, got.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "lunch", got.Description)
}

func TestCreate_AcceptsDateTimes(t *testing.T) {
	svc, _ := newTestExpenseService()
	userID := uuid.New()

	for _, d := range []string{"2024-03-05T10:30:00Z", "2024-03-05T10:30:00+02:00", "2024-03-05T10:30:00", "2024-03-05T10:30:00.123Z"} {
		_, err := svc.Create(context.Background(), userID, CreateExpenseInput{
			Amount: decimal.NewFromInt(1), Category: "Food", Date: d,
		})
		assert.NoError(t, err, d)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestExpenseService()
	userID := uuid.New()

	tests := []struct {
		name  string
		in    CreateExpenseInput
		field string
	}{
		{"zero amount", CreateExpenseInput{Amount: decimal.Zero, Category: "Food", Date: "2024-03-05"}, "amount"},
		{"negative amount", CreateExpenseInput{Amount: decimal.NewFromInt(-5), Category: "Food", Date: "2024-03-05"}, "amount"},
		{"three decimals", CreateExpenseInput{Amount: decimal.RequireFromString("1.005"), Category: "Food", Date: "2024-03-05"}, "amount"},
		{"at the cap", CreateExpenseInput{Amount: decimal.New(1, 12), Category: "Food", Date: "2024-03-05"}, "amount"},
		{"huge exponent", CreateExpenseInput{Amount: decimal.RequireFromString("1e50000000"), Category: "Food", Date: "2024-03-05"}, "amount"},
		{"tiny exponent", CreateExpenseInput{Amount: decimal.RequireFromString("1e-50000000"), Category: "Food", Date: "2024-03-05"}, "amount"},
		{"missing category", CreateExpenseInput{Amount: decimal.NewFromInt(5), Date: "2024-03-05"}, "category"},
		{"missing date", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "Food"}, "date"},
		{"bad date", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "Food", Date: "yesterday"}, "date"},
		{"impossible date", CreateExpenseInput{Amount: decimal.NewFromInt(5), Category: "Food", Date: "2024-02-30"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestCreate_AmountBounds(t *testing.T) {
	svc, _ := newTestExpenseService()

	for _, a := range []string{"999999999999.99", "0.01", "5.000", "1.5e2"} {
		_, err := svc.Create(context.Background(), uuid.New(), CreateExpenseInput{
			Amount: decimal.RequireFromString(a), Category: "Food", Date: "2024-03-05",
		})
		assert.NoError(t, err, a)
	}
}

func TestCreate_FutureDateRejected(t *testing.T) {
	svc, store := newTestExpenseService()

	_, err := svc.Create(context.Background(), uuid.New(), CreateExpenseInput{
		Amount: decimal.NewFromInt(5), Category: "Food", Date: "2024-04-16",
	})
	assert.ErrorIs(t, err, ErrFutureDate)
	assert.Empty(t, store.items)

	_, err = svc.Create(context.Background(), uuid.New(), CreateExpenseInput{
		Amount: decimal.NewFromInt(5), Category: "Food", Date: "2024-04-15",
	})
	assert.NoError(t, err, "today at midnight is not in the future")

	_, err = svc.Create(context.Background(), uuid.New(), CreateExpenseInput{
		Amount: decimal.NewFromInt(5), Category: "Food", Date: fixedNow.Format(time.RFC3339),
	})
	assert.NoError(t, err, "a date equal to now is accepted")

	_, err = svc.Create(context.Background(), uuid.New(), CreateExpenseInput{
		Amount: decimal.NewFromInt(5), Category: "Food", Date: fixedNow.Add(time.Second).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrFutureDate)
}

func TestList_PaginationAndOrder(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	oldest := mustCreate(t, svc, userID, "10", "Food", "2024-03-01")
	middle := mustCreate(t, svc, userID, "20", "Food", "2024-03-10")
	newest := mustCreate(t, svc, userID, "30", "Food", "2024-03-20")

	page1, err := svc.List(ctx, userID, ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page1.Total)
	assert.Equal(t, 1, page1.Page)
	assert.Equal(t, 2, page1.Limit)
	require.Len(t, page1.Expenses, 2)
	assert.Equal(t, newest, page1.Expenses[0].ID.String())
	assert.Equal(t, middle, page1.Expenses[1].ID.String())

	page2, err := svc.List(ctx, userID, ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2.Expenses, 1)
	assert.Equal(t, oldest, page2.Expenses[0].ID.String())

	beyond, err := svc.List(ctx, userID, ListQuery{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, beyond.Total)
	assert.NotNil(t, beyond.Expenses)
	assert.Empty(t, beyond.Expenses)
}

func TestList_SameDateKeepsInsertionOrder(t *testing.T) {
	svc, _ := newTestExpenseService()
	userID := uuid.New()

	first := mustCreate(t, svc, userID, "1", "Food", "2024-03-01")
	second := mustCreate(t, svc, userID, "2", "Food", "2024-03-01")

	list, err := svc.List(context.Background(), userID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Expenses, 2)
	assert.Equal(t, second, list.Expenses[0].ID.String())
	assert.Equal(t, first, list.Expenses[1].ID.String())
}

func TestList_Filters(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	mustCreate(t, svc, userID, "10", "Food", "2024-02-28")
	mustCreate(t, svc, userID, "20", "Food", "2024-03-31T18:00:00Z")
	mustCreate(t, svc, userID, "30", "Travel", "2024-03-15")
	mustCreate(t, svc, uuid.New(), "40", "Food", "2024-03-15")

	list, err := svc.List(ctx, userID, ListQuery{StartDate: "2024-03-01", EndDate: "2024-03-31", Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Expenses, 1)
	assert.True(t, list.Expenses[0].Amount.Equal(decimal.NewFromInt(20)))
}

func TestList_BadDateIsValidationError(t *testing.T) {
	svc, _ := newTestExpenseService()

	_, err := svc.List(context.Background(), uuid.New(), ListQuery{StartDate: "03/01/2024"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "startDate")
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 5, 2, 5},
		{1, 1000, 1, 100},
		{1 << 62, 20, MaxPage, 20},
		{MaxPage, MaxLimit, MaxPage, MaxLimit},
	}
	for _, tt := range tests {
		p, l := normalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
		assert.LessOrEqual(t, (p-1)*l, math.MaxInt32)
	}
}

func TestList_HugePageIsEmptyNotError(t *testing.T) {
	svc, _ := newTestExpenseService()
	userID := uuid.New()
	mustCreate(t, svc, userID, "10", "Food", "2024-03-01")

	list, err := svc.List(context.Background(), userID, ListQuery{Page: 1 << 62, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, list.Page)
	assert.Empty(t, list.Expenses)
	assert.Equal(t, 1, list.Total)
}

func TestGet_OtherUsersExpenseIsNotFound(t *testing.T) {
	svc, _ := newTestExpenseService()
	owner, other := uuid.New(), uuid.New()

	id := mustCreate(t, svc, owner, "10", "Food", "2024-03-01")

	_, err := svc.Get(context.Background(), other, id)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), other, id)
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	_, err = svc.Get(context.Background(), owner, id)
	assert.NoError(t, err, "foreign delete must not remove the expense")
}

func TestGet_MalformedID(t *testing.T) {
	svc, _ := newTestExpenseService()

	_, err := svc.Get(context.Background(), uuid.New(), "not-a-uuid")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "invalid expense id", ve.Message)
}

func TestDelete_Twice(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	id := mustCreate(t, svc, userID, "10", "Food", "2024-03-01")

	require.NoError(t, svc.Delete(ctx, userID, id))
	assert.ErrorIs(t, svc.Delete(ctx, userID, id), ErrExpenseNotFound)

	_, err := svc.Get(ctx, userID, id)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestMonthlySummary(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	mustCreate(t, svc, userID, "50", "Food", "2024-03-05")
	mustCreate(t, svc, userID, "30", "Food", "2024-03-20")
	mustCreate(t, svc, userID, "100", "Transport", "2024-03-10")
	mustCreate(t, svc, userID, "999", "Food", "2024-04-01")
	mustCreate(t, svc, userID, "999", "Food", "2024-02-29T23:59:59Z")

	sum, err := svc.MonthlySummary(ctx, userID, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", sum.Month)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), sum.Start)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999000000, time.UTC), sum.End)

	require.Len(t, sum.Breakdown, 2)
	assert.Equal(t, "Transport", sum.Breakdown[0].Category)
	assert.True(t, sum.Breakdown[0].Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Food", sum.Breakdown[1].Category)
	assert.True(t, sum.Breakdown[1].Total.Equal(decimal.NewFromInt(80)))
}

func TestMonthlySummary_DefaultsToCurrentMonth(t *testing.T) {
	svc, _ := newTestExpenseService()

	sum, err := svc.MonthlySummary(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-04", sum.Month)
	assert.NotNil(t, sum.Breakdown)
	assert.Empty(t, sum.Breakdown)
}

func TestMonthlySummary_BadMonth(t *testing.T) {
	svc, _ := newTestExpenseService()

	for _, m := range []string{"2024-13", "March", "2024/03"} {
		_, err := svc.MonthlySummary(context.Background(), uuid.New(), m)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), m)
		assert.Contains(t, ve.Fields, "month")
	}
}

func TestTotalSpending(t *testing.T) {
	svc, _ := newTestExpenseService()
	ctx := context.Background()
	userID := uuid.New()

	total, err := svc.TotalSpending(ctx, userID, "", "")
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	mustCreate(t, svc, userID, "10.25", "Food", "2024-03-01")
	mustCreate(t, svc, userID, "20.50", "Bills", "2024-03-31")
	mustCreate(t, svc, userID, "5", "Food", "2024-04-01")
	mustCreate(t, svc, uuid.New(), "1000", "Food", "2024-03-15")

	total, err = svc.TotalSpending(ctx, userID, "", "")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("35.75")), total.String())

	total, err = svc.TotalSpending(ctx, userID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("30.75")), total.String())
}
