package summary

import (
	"fmt"
	"net/url"

	"github.com/crucial707/expense-tracker/cmd/cli/client"
	"github.com/crucial707/expense-tracker/cmd/cli/output"
	"github.com/crucial707/expense-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// InitSummary registers `summary monthly` and `summary total`.
func InitSummary(rootCmd *cobra.Command) {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Spending reports",
	}
	summaryCmd.AddCommand(monthlyCmd(), totalCmd())
	rootCmd.AddCommand(summaryCmd)
}

func monthlyCmd() *cobra.Command {
	var month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Per-category totals for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			q := url.Values{}
			if month != "" {
				q.Set("month", month)
			}
			var out struct {
				Month     string                 `json:"month"`
				Breakdown []models.CategoryTotal `json:"breakdown"`
			}
			if err := c.Get("/api/expenses/summary/monthly", q, &out); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out)
			}

			sum := decimal.Zero
			rows := make([][]any, 0, len(out.Breakdown)+1)
			for _, ct := range out.Breakdown {
				rows = append(rows, []any{ct.Category, ct.Total.StringFixed(2)})
				sum = sum.Add(ct.Total)
			}
			rows = append(rows, []any{"TOTAL", sum.StringFixed(2)})

			fmt.Fprintf(cmd.OutOrStdout(), "Spending for %s\n", out.Month)
			output.RenderTable(cmd.OutOrStdout(), []string{"Category", "Total"}, rows, "Total")
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

func totalCmd() *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Total spending, optionally within a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewAuthed()
			if err != nil {
				return err
			}

			q := url.Values{}
			if from != "" {
				q.Set("startDate", from)
			}
			if to != "" {
				q.Set("endDate", to)
			}
			var out struct {
				Total decimal.Decimal `json:"total"`
			}
			if err := c.Get("/api/expenses/summary/total", q, &out); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total spending: %s\n", out.Total.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Latest date, YYYY-MM-DD (inclusive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}
