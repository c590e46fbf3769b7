package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/auth"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration

	// Swapped in tests.
	runMigrationsUp   = postgres.RunMigrations
	runMigrationsDown = postgres.RunMigrationsDown
	migrationVersion  = postgres.MigrationVersion
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dmh-cli",
		Short:         "Digital Money House CLI tool",
		Long:          `A command line interface for operating the Digital Money House wallet API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the wallet API")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	root.AddCommand(migrateCmd(), tokenCmd(), activityCmd())
	return root
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", os.Getenv("MIGRATIONS_PATH"), "Migrations directory; empty uses the embedded set")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrationsUp(cmd.Context(), databaseURL, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrationsDown(cmd.Context(), databaseURL, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, dirty, err := migrationVersion(databaseURL, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a session token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func activityCmd() *cobra.Command {
	var token, text, period, from, to, direction string
	var page int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Query the activity of the token's user",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIf(q, "q", text)
			setIf(q, "period", period)
			setIf(q, "from", from)
			setIf(q, "to", to)
			setIf(q, "direction", direction)
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := fetchActivity(ctx, &http.Client{Timeout: timeout}, token, q)
			if err != nil {
				return err
			}

			if asJSON {
				printJSON(cmd.OutOrStdout(), result)
				return nil
			}
			printActivity(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", os.Getenv("DMH_TOKEN"), "Bearer token")
	cmd.Flags().StringVar(&text, "q", "", "Free-text search")
	cmd.Flags().StringVar(&period, "period", "", "Preset period, e.g. ultima_semana")
	cmd.Flags().StringVar(&from, "from", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&direction, "direction", "", "credit or debit")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func fetchActivity(ctx context.Context, client *http.Client, token string, q url.Values) (*dto.ActivityResponse, error) {
	target := baseURL + "/api/v1/me/activity"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result dto.ActivityResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

func printActivity(w io.Writer, r *dto.ActivityResponse) {
	if len(r.Items) == 0 {
		fmt.Fprintln(w, "No se encontraron resultados")
		return
	}

	for _, e := range r.Items {
		date := "-"
		if e.OccurredAt != nil {
			date = e.OccurredAt.Format(dto.DateLayout)
		}
		fmt.Fprintf(w, "%-10s  %-32s  %14s\n", date, truncate(e.Description, 32), e.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "page %d/%d (%d results)\n", r.Page, r.TotalPages, r.TotalItems)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
