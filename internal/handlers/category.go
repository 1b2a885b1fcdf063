package handlers

import (
	"net/http"

	"github.com/crucial707/expense-tracker/internal/models"
)

// Categories lists the suggested expense categories. No auth required.
func Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": models.Categories()})
}
