// Package cli implements the interactive console client for the
// authentication core: a small read–eval–print loop over a local store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wisespend/authcore/internal/auth"
	"github.com/wisespend/authcore/internal/config"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/logging"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

type App struct {
	config *config.Config
	svc    *auth.Service
	store  kvstore.Store
	reader *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	store, err := kvstore.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing store: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	svc := auth.NewService(store, cfg, logger)

	return &App{config: cfg, svc: svc, store: store, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) statusLine(ctx context.Context) string {
	st := a.svc.SystemStatus(ctx)
	if st.IsAuthenticated {
		return *st.Username
	}
	return "not logged in"
}

// Run starts the REPL. It exits on EOF or when the user types "exit" or
// "quit". Command handlers report their own errors; the loop itself only
// does I/O.
func (a *App) Run(ctx context.Context) {
	defer a.store.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printlnFn(fmt.Sprintf("auth> %s > ", a.statusLine(ctx)))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			printlnFn("Available commands: register, login, logout, session, status, logs, exit")
		case "register":
			if err := a.Register(ctx); err != nil {
				printlnFn("Error: " + err.Error())
			}
		case "login":
			if err := a.Login(ctx); err != nil {
				printlnFn("Error: " + err.Error())
			}
		case "logout":
			if err := a.svc.Logout(ctx); err != nil {
				printlnFn("Error: " + err.Error())
			} else {
				printlnFn("Logged out")
			}
		case "session":
			printlnFn(fmt.Sprintf("session active: %v", a.svc.CheckSession(ctx)))
		case "status":
			a.Status(ctx)
		case "logs":
			a.Logs()
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command: " + parts[0])
		}

		// Any keyboard interaction counts as activity for renewal.
		a.svc.Touch(ctx)
	}
}

// Register prompts for a username and password (twice, without echo) and
// creates the account. No auto-login: a login must follow.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := GetPassword("Confirm password", os.Stdout)
	if err != nil {
		return err
	}

	summary, err := a.svc.Register(ctx, username, password, confirm)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Success! Password strength: %s. Now log in.", summary.Strength))
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.svc.Login(ctx, username, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s! Session valid until %s.", sess.Username, sess.ExpiresAt.Format("15:04:05")))
	return nil
}

// Status prints the system status snapshot.
func (a *App) Status(ctx context.Context) {
	st := a.svc.SystemStatus(ctx)
	username := "-"
	if st.Username != nil {
		username = *st.Username
	}
	printlnFn(fmt.Sprintf("authenticated: %v, user: %s, diagnostic entries: %d", st.IsAuthenticated, username, st.LogCount))
}

// Logs prints the diagnostic ring buffer, oldest first.
func (a *App) Logs() {
	for _, e := range a.svc.Logs() {
		printlnFn(fmt.Sprintf("%s [%s] %s (%s)", e.Timestamp.Format("15:04:05"), e.Severity, e.Message, e.Context))
	}
}
