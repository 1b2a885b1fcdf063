package main

import (
	"fmt"
	"os"

	"github.com/crucial707/expense-tracker/cmd/cli/auth"
	"github.com/crucial707/expense-tracker/cmd/cli/expenses"
	"github.com/crucial707/expense-tracker/cmd/cli/root"
	"github.com/crucial707/expense-tracker/cmd/cli/summary"
)

func main() {
	rootCmd := root.NewRoot()
	auth.InitAuth(rootCmd)
	expenses.InitExpenses(rootCmd)
	summary.InitSummary(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
