package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Yizhe0407/dormcheck/internal/logging"
	"github.com/Yizhe0407/dormcheck/internal/session"
	"github.com/Yizhe0407/dormcheck/internal/tui"
	"github.com/Yizhe0407/dormcheck/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	godotenv.Load() //nolint:errcheck // .env is optional
	apiURL := envOr("DORMCHECK_API_URL", "http://localhost:3001")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("dormcheck " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout(apiURL)
		}
	}

	tokens, err := tokenStore()
	if err != nil {
		return err
	}

	c := client.New(apiURL, "")
	store := session.New(c, tokens, openLogger())

	app := tui.NewApp(c, store, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// tokenStore returns the token source, precedence: env var > file.
func tokenStore() (session.TokenStore, error) {
	if tok := os.Getenv("DORMCHECK_TOKEN"); tok != "" {
		return session.StaticTokenStore(tok), nil
	}
	path, err := session.DefaultTokenPath()
	if err != nil {
		return nil, err
	}
	return session.FileTokenStore{Path: path}, nil
}

// openLogger writes to ~/.dormcheck/dormcheck.log; the TUI owns the terminal.
// Any setup failure degrades to a discarding logger rather than breaking
// startup.
func openLogger() *slog.Logger {
	tokPath, err := session.DefaultTokenPath()
	if err != nil {
		return logging.Discard()
	}
	dir := filepath.Dir(tokPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return logging.Discard()
	}
	f, err := os.OpenFile(filepath.Join(dir, "dormcheck.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return logging.Discard()
	}
	return logging.New(f, logging.Config{
		Level:  os.Getenv("DORMCHECK_LOG_LEVEL"),
		Format: os.Getenv("DORMCHECK_LOG_FORMAT"),
	})
}

func runLogout(apiURL string) error {
	tokens, err := tokenStore()
	if err != nil {
		return err
	}
	tok, err := tokens.Load()
	if err != nil {
		return err
	}
	if tok == "" {
		fmt.Println("Already logged out.")
		return nil
	}

	c := client.New(apiURL, tok)
	store := session.New(c, tokens, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	store.Logout(ctx)
	fmt.Println("Logged out.")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp() {
	fmt.Print(`dormcheck - dormitory check-out reservation client

Usage:
  dormcheck            open the reservation board (interactive TUI)
  dormcheck logout     clear the admin session
  dormcheck version    show version

Environment:
  DORMCHECK_API_URL      backend base URL (default http://localhost:3001)
  DORMCHECK_TOKEN        admin token, overrides ~/.dormcheck/token
  DORMCHECK_LOG_LEVEL    debug, info, warn or error (default info)
  DORMCHECK_LOG_FORMAT   text or json (default text)

Sign in from the TUI with L; reservations need no account.
`)
}
