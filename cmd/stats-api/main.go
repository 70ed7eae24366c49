package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"go_todo/internal/config"
	"go_todo/internal/database"
	"go_todo/internal/logging"
	"go_todo/internal/server"
	"go_todo/internal/stats"
	"go_todo/internal/todo"
)

// stats-api serves only the per-user summaries, reading the same todos
// table as todo-api. It never writes or migrates.
func main() {
	cfg, err := config.Load(":8082")
	if err != nil {
		log.Fatal("invalid config", "err", err)
	}
	logger := logging.New("stats-api", cfg.LogLevel)
	if cfg.StoreDriver != config.DriverPostgres {
		logger.Fatal("stats-api needs the postgres store", "driver", cfg.StoreDriver)
	}

	db, err := database.Open(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db connect failed", "err", err)
	}
	defer db.Close()

	router := server.NewRouter(cfg, logger, stats.NewHandler(stats.NewStore(todo.NewStore(db)), logger))
	srv := server.New(cfg, router, logger)

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
