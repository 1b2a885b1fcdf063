package expenses

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/crucial707/expense-tracker/cmd/cli/client"
	"github.com/crucial707/expense-tracker/cmd/cli/output"
	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// ==========================
// Init Expenses
// ==========================
func InitExpenses(rootCmd *cobra.Command) {
	expensesCmd := &cobra.Command{
		Use:   "expenses",
		Short: "Record and browse your expenses",
	}

	expensesCmd.AddCommand(
		listExpensesCmd(),
		addExpenseCmd(),
		getExpenseCmd(),
		deleteExpenseCmd(),
	)

	rootCmd.AddCommand(expensesCmd, categoriesCmd())
}

type expenseList struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Expenses []models.Expense `json:"expenses"`
}

// ==========================
// LIST
// ==========================
func listExpensesCmd() *cobra.Command {
	var page, limit int
	var category, from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			q := url.Values{}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			setIf(q, "category", category)
			setIf(q, "startDate", from)
			setIf(q, "endDate", to)

			var list expenseList
			if err := c.Get("/api/expenses", q, &list); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), list)
			}
			renderExpenses(cmd, list.Expenses)
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d, showing %d of %d\n", list.Page, len(list.Expenses), list.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number (default 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (default 20, max 100)")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().StringVar(&from, "from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Latest date, YYYY-MM-DD (inclusive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

// ==========================
// ADD
// ==========================
func addExpenseCmd() *cobra.Command {
	var amount, category, date, description string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount %q is not a number", amount)
			}
			if category == "" {
				return errors.New("--category is required")
			}
			if date == "" {
				date = time.Now().Format(time.DateOnly)
			}

			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			var e models.Expense
			err = c.Post("/api/expenses", map[string]any{
				"amount":      amt,
				"category":    category,
				"date":        date,
				"description": description,
			}, &e)
			if err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (id %s)\n",
				e.Amount.StringFixed(2), e.Category, e.Date.Format(time.DateOnly), e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&category, "category", "", "Category, see `expense categories`")
	cmd.Flags().StringVar(&date, "date", "", "Date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "Optional note")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	cmd.MarkFlagRequired("amount")
	return cmd
}

// ==========================
// GET
// ==========================
func getExpenseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			var e models.Expense
			if err := c.Get("/api/expenses/"+url.PathEscape(args[0]), nil, &e); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), e)
			}
			renderExpenses(cmd, []models.Expense{e})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			var out struct {
				Message string `json:"message"`
			}
			if err := c.Delete("/api/expenses/"+url.PathEscape(args[0]), &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
}

// ==========================
// CATEGORIES
// ==========================
func categoriesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List suggested categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Categories []string `json:"categories"`
			}
			if err := client.New().Get("/api/categories", nil, &out); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]any, 0, len(out.Categories))
			for _, c := range out.Categories {
				rows = append(rows, []any{c})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Category"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

func renderExpenses(cmd *cobra.Command, list []models.Expense) {
	rows := make([][]any, 0, len(list))
	for _, e := range list {
		rows = append(rows, []any{
			e.ID.String(),
			e.Date.Format(time.DateOnly),
			e.Category,
			e.Amount.StringFixed(2),
			e.Description,
		})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Date", "Category", "Amount", "Description"}, rows, "Amount")
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
