package root

import (
	"github.com/spf13/cobra"
)

// NewRoot returns the top-level `expense` command without subcommands.
func NewRoot() *cobra.Command {
	return &cobra.Command{
		Use:           "expense",
		Short:         "Expense tracker CLI",
		Long:          "Command line interface for the expense tracking API. Set EXPENSE_API_URL to point at a non-default server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
