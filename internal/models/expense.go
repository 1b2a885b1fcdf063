package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense is a single spending record owned by exactly one user.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CategoryTotal is one row of a per-category aggregation.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
