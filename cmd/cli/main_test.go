package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestTokenCmd(t *testing.T) {
	out, err := execute(t, "token", "user-42", "--secret", "s3cret", "--email", "ana@example.com")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	session, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if session.UserID != "user-42" {
		t.Fatalf("expected user-42, got %q", session.UserID)
	}
}

func TestTokenCmdRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := execute(t, "token", "user-42"); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestMigrateCmds(t *testing.T) {
	origUp, origDown, origVersion := runMigrationsUp, runMigrationsDown, migrationVersion
	defer func() { runMigrationsUp, runMigrationsDown, migrationVersion = origUp, origDown, origVersion }()

	var gotURL, gotPath string
	runMigrationsUp = func(ctx context.Context, databaseURL, path string) error {
		gotURL, gotPath = databaseURL, path
		return nil
	}
	runMigrationsDown = func(ctx context.Context, databaseURL, path string) error {
		return errors.New("boom")
	}
	migrationVersion = func(databaseURL, path string) (uint, bool, error) {
		return 3, false, nil
	}

	out, err := execute(t, "migrate", "up", "--database-url", "postgres://db", "--path", "/tmp/migrations")
	if err != nil || strings.TrimSpace(out) != "migrations applied" {
		t.Fatalf("unexpected up result: %q %v", out, err)
	}
	if gotURL != "postgres://db" || gotPath != "/tmp/migrations" {
		t.Fatalf("flags not passed through: %q %q", gotURL, gotPath)
	}

	if _, err := execute(t, "migrate", "down"); err == nil || err.Error() != "boom" {
		t.Fatalf("expected down error, got %v", err)
	}

	out, err = execute(t, "migrate", "version")
	if err != nil || strings.TrimSpace(out) != "version: 3 dirty: false" {
		t.Fatalf("unexpected version output: %q %v", out, err)
	}
}

func TestActivityCmd(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "e1", "occurred_at": "2026-10-15T10:00:00-03:00", "description": "Cargaste dinero", "amount": "1500"},
				{"id": "e2", "occurred_at": null, "description": "Ajuste", "amount": "-20.5"}
			],
			"page": 1, "total_pages": 1, "total_items": 2
		}`))
	}))
	defer srv.Close()

	out, err := execute(t, "activity", "--url", srv.URL, "--token", "tok", "--period", "ultima_semana", "--direction", "credit", "--page", "2")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotQuery != "direction=credit&page=2&period=ultima_semana" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	for _, want := range []string{"2026-10-15", "Cargaste dinero", "1500.00", "-20.50", "page 1/1 (2 results)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestActivityCmdReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "activity", "--url", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestActivityCmdEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [], "page": 1, "total_pages": 1, "total_items": 0}`))
	}))
	defer srv.Close()

	out, err := execute(t, "activity", "--url", srv.URL)
	if err != nil || !strings.Contains(out, "No se encontraron resultados") {
		t.Fatalf("unexpected output %q %v", out, err)
	}
}
