package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crucial707/expense-tracker/cmd/cli/client"
	"github.com/crucial707/expense-tracker/cmd/cli/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// InitAuth registers register, login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd())
}

type user struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" {
				return errors.New("--name and --email are required")
			}
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}

			var u user
			err = client.New().Post("/api/auth/register", map[string]string{
				"name": name, "email": email, "password": pw,
			}, &u)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>. You can now log in.\n", u.Name, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token locally",
		Long:  "Authenticate with the expense API and store the bearer token in ~/.expense_token for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}

			var out struct {
				Token string `json:"token"`
				User  user   `json:"user"`
			}
			if err := client.New().Post("/api/auth/login", map[string]string{"email": email, "password": pw}, &out); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if out.Token == "" {
				return errors.New("login succeeded but no token returned")
			}

			if err := config.SaveToken(out.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Token stored locally.\n", out.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// passwordOrPrompt returns flagValue when set. Otherwise it reads the password
// from the terminal without echo, or one line from a piped stdin.
func passwordOrPrompt(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}
