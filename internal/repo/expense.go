package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const expenseColumns = "id, user_id, amount, category, date, description, created_at"

// ExpenseFilter scopes a query to one owner, with optional inclusive date
// bounds and an exact category match.
type ExpenseFilter struct {
	UserID   uuid.UUID
	From     *time.Time
	To       *time.Time
	Category string
}

// where renders the filter as a WHERE body. Placeholders are numbered from $1.
func (f ExpenseFilter) where() (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// ========================
// REPOSITORY STRUCT
// ========================

type ExpenseRepo struct {
	DB *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo {
	return &ExpenseRepo{DB: db}
}

// ========================
// CREATE EXPENSE
// ========================

// Create assigns a time-ordered id to e, inserts it and fills CreatedAt.
func (r *ExpenseRepo) Create(ctx context.Context, e *models.Expense) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO expenses (id, user_id, amount, category, date, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		id, e.UserID, e.Amount, e.Category, e.Date, e.Description,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	e.ID = id
	return nil
}

// ========================
// GET EXPENSE BY ID
// ========================

func (r *ExpenseRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ========================
// DELETE EXPENSE BY ID
// ========================

func (r *ExpenseRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ========================
// LIST EXPENSES WITH PAGINATION
// ========================

// List returns one page of matching expenses, newest date first. Equal dates
// fall back to id order, which follows insertion order for UUIDv7 ids.
func (r *ExpenseRepo) List(ctx context.Context, f ExpenseFilter, limit, offset int) ([]models.Expense, error) {
	where, args := f.where()
	args = append(args, limit, offset)

	query := fmt.Sprintf(
		`SELECT %s FROM expenses WHERE %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		expenseColumns, where, len(args)-1, len(args),
	)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// Count returns the number of expenses matching f, ignoring pagination.
func (r *ExpenseRepo) Count(ctx context.Context, f ExpenseFilter) (int, error) {
	where, args := f.where()

	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// ========================
// AGGREGATES
// ========================

// SumByCategory groups matching expenses by category, largest total first.
func (r *ExpenseRepo) SumByCategory(ctx context.Context, f ExpenseFilter) ([]models.CategoryTotal, error) {
	where, args := f.where()

	rows, err := r.DB.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total
		 FROM expenses
		 WHERE `+where+`
		 GROUP BY category
		 ORDER BY total DESC, category ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("sum by category: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// Sum totals the amounts of matching expenses. No matches yield zero.
func (r *ExpenseRepo) Sum(ctx context.Context, f ExpenseFilter) (decimal.Decimal, error) {
	where, args := f.where()

	var total decimal.Decimal
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE `+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Date, &e.Description, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
