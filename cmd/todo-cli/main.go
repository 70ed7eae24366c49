package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"go_todo/internal/client"
	"go_todo/internal/config"
	"go_todo/internal/logging"
	"go_todo/internal/todostore"
	"go_todo/internal/tui"
)

func main() {
	userID := flag.String("user", os.Getenv("TODO_USER"), "user id whose todos are shown")
	env := flag.String("env", "", "api environment: development, staging or production (default $TODO_APP_ENV)")
	flag.Parse()

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "usage: todo-cli -user <id> [-env development|staging|production]")
		os.Exit(2)
	}

	cfg, err := config.LoadClient(*env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		os.Exit(1)
	}
	defer closeLog()

	api, err := client.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid client config:", err)
		os.Exit(1)
	}
	logger.Info("starting", "env", cfg.Environment, "base_url", cfg.BaseURL, "user", *userID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	store := todostore.New(api, logger)
	if err := tui.Run(ctx, store, strings.TrimSpace(*userID)); err != nil {
		logger.Error("tui exited", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openLog writes to TODO_LOG_FILE when set; the terminal belongs to the UI.
func openLog() (*log.Logger, func(), error) {
	path := os.Getenv("TODO_LOG_FILE")
	if path == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithWriter(f, "todo-cli", os.Getenv("LOG_LEVEL"))
	return logger, func() { _ = f.Close() }, nil
}
