package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaehyun-dev/concord/internal/api"
	"github.com/jaehyun-dev/concord/internal/api/handlers"
	"github.com/jaehyun-dev/concord/internal/store"
	"github.com/jaehyun-dev/concord/pkg/database"
)

// serveCmd starts the HTTP API with the websocket progress feed.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves run results over REST and streams live pipeline progress
over a websocket at /ws/progress. Runs can be triggered with
POST /api/v1/run.

Example:
  go run ./cmd/concord serve
  go run ./cmd/concord serve --port 9000`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	// 1. Database (optional; read endpoints return 503 without it)
	var db *database.DB
	var repo *store.Repository
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		repo = store.NewRepository(db.Pool)
	} else {
		log.Warn("DATABASE_URL not set, run history endpoints disabled")
	}

	// 2. Progress hub feeding connected websocket clients
	hub := api.NewHub(log)

	// 3. Engine
	eng, err := buildEngine(cfg, log, db, hub)
	if err != nil {
		return err
	}

	// 4. HTTP server
	runHandler := handlers.NewRunHandler(repo, eng, log)
	server := api.New(cfg, log, api.NewRouter(runHandler, hub, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithFields(map[string]interface{}{"signal": sig.String()}).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
