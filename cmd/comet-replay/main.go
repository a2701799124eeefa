// comet-replay stores pointer scripts and replays them through the comet
// trail simulator, returning the frames as JSON or streaming them over a
// websocket at the simulation rate.
//
// Environment (a .env file in the working directory is loaded first):
//
//	PORT          listen port (default 8080)
//	COMET_DB      sqlite database path (default comet.db)
//	COMET_CONFIG  optional YAML trail configuration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/phanxgames/comet"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logLevelStr := flag.String("log-level", "info", "Log level: error, warn, info, debug")
	flag.Parse()

	level, err := parseLogLevel(*logLevelStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(level)
	if level != LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(logger); err != nil {
		logger.Error("comet-replay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := comet.DefaultConfig()
	if path := os.Getenv("COMET_CONFIG"); path != "" {
		loaded, err := comet.LoadConfigFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Info("config loaded", "path", path)
	}

	dbPath := getenv("COMET_DB", "comet.db")
	store, err := OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:    ":" + getenv("PORT", "8080"),
		Handler: NewServer(store, cfg, logger).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "db", dbPath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
