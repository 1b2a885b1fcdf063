package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:5000"
	tokenFileName = ".expense_token"
)

// ErrNotLoggedIn is returned by LoadToken when no token has been saved.
var ErrNotLoggedIn = errors.New("not logged in: run `expense login` first")

// APIURL returns the base URL for the expense API.
// It can be overridden with the EXPENSE_API_URL environment variable.
func APIURL() string {
	if v := strings.TrimSpace(os.Getenv("EXPENSE_API_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// TokenPath is ~/.expense_token.
func TokenPath() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(dir, tokenFileName), nil
}

func SaveToken(token string) error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func LoadToken() (string, error) {
	path, err := TokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotLoggedIn
		}
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// ClearToken removes the saved token. It reports false when there was none.
func ClearToken() (bool, error) {
	path, err := TokenPath()
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
