package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/crucial707/expense-tracker/internal/repo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, name, email, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := m.users[key]; ok {
		return nil, repo.ErrDuplicate
	}
	u := &models.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[key] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

// memExpenses is an in-memory ExpenseStore with the same ordering and
// ownership rules as the SQL repository.
type memExpenses struct {
	mu    sync.Mutex
	items []models.Expense
}

func (m *memExpenses) Create(_ context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	e.ID = id
	e.CreatedAt = time.Now()
	m.items = append(m.items, *e)
	return nil
}

func (m *memExpenses) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.items {
		if e.ID == id && e.UserID == userID {
			out := e
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memExpenses) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.items {
		if e.ID == id && e.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memExpenses) match(f repo.ExpenseFilter) []models.Expense {
	out := []models.Expense{}
	for _, e := range m.items {
		if e.UserID != f.UserID {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (m *memExpenses) List(_ context.Context, f repo.ExpenseFilter, limit, offset int) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.match(f)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	if offset >= len(all) {
		return []models.Expense{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memExpenses) Count(_ context.Context, f repo.ExpenseFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.match(f)), nil
}

func (m *memExpenses) SumByCategory(_ context.Context, f repo.ExpenseFilter) ([]models.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sums := map[string]decimal.Decimal{}
	for _, e := range m.match(f) {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	out := []models.CategoryTotal{}
	for c, t := range sums {
		out = append(out, models.CategoryTotal{Category: c, Total: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (m *memExpenses) Sum(_ context.Context, f repo.ExpenseFilter) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero
	for _, e := range m.match(f) {
		total = total.Add(e.Amount)
	}
	return total, nil
}
