package models

var categories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Education",
	"Travel",
	"Groceries",
	"Other",
}

// Categories returns the fixed, ordered list of suggested expense categories.
// Expenses are not required to use one of them.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}
