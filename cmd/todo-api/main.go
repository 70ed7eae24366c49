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

func main() {
	// load config, open the store, serve until SIGINT/SIGTERM
	cfg, err := config.Load(":8787")
	if err != nil {
		log.Fatal("invalid config", "err", err)
	}
	logger := logging.New("todo-api", cfg.LogLevel)

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", "driver", cfg.StoreDriver, "err", err)
	}
	defer closeRepo()

	router := server.NewRouter(cfg, logger,
		todo.NewHandler(repo, logger),
		stats.NewHandler(stats.NewStore(repo), logger),
	)
	srv := server.New(cfg, router, logger)

	go func() {
		logger.Info("listening", "addr", cfg.Addr, "driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	// give in-flight requests time to finish
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func openRepository(cfg config.Config, logger *log.Logger) (todo.Repository, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		return todo.NewMemoryStore(nil), func() {}, nil
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return todo.NewStore(db), func() { _ = db.Close() }, nil
}
