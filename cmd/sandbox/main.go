package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"runrun-importer/runrun/infra"
	"runrun-importer/runrun/sandbox"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	var (
		addr         string
		appKey       string
		userToken    string
		maxPerMinute int
		window       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sandbox [BOARD.yaml ...]",
		Short: "Local fake of the Runrun.it API for trying out the importer",
		Long: `sandbox serves boards/{id}/fields, fields/{id}/options and POST tasks from
memory under /api/v1.0, limiting each App-Key to --max-per-minute requests and
answering 429 with a RateLimit-Reset header when the limit is hit.

Board files use the format printed by "importer fields BOARD_ID".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			api := sandbox.NewAPI(appKey, userToken, logger)
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				boardID, err := api.LoadBoardYAML(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				logger.Info("board loaded", "board_id", boardID, "file", path)
			}

			store := sandbox.NewKeyStore(maxPerMinute, window)
			store.StartJanitor(ctx)
			stats := infra.NewMemoryStatsStore()

			h := sandbox.RateLimit(sandbox.RateLimitOptions{Store: store, Stats: stats})(api.Handler())

			srv := &http.Server{
				Addr:              addr,
				Handler:           h,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       90 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("sandbox listening", "addr", addr, "base_path", sandbox.BasePath,
				"max_per_minute", maxPerMinute, "window", window)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}

			req := stats.Requests()
			logger.Info("sandbox stopped", "tasks", len(api.Tasks()),
				"requests_ok", req.OK, "requests_429", req.RateLimited)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("LISTEN_ADDR", ":8081"), "listen address")
	cmd.Flags().StringVar(&appKey, "app-key", envOr("RUNRUNIT_APP_KEY", "sandbox"), "accepted App-Key")
	cmd.Flags().StringVar(&userToken, "user-token", envOr("RUNRUNIT_USER_TOKEN", "sandbox"), "accepted User-Token")
	cmd.Flags().IntVar(&maxPerMinute, "max-per-minute", 100, "requests per window for each App-Key")
	cmd.Flags().DurationVar(&window, "window", time.Minute, "rate limit window")
	return cmd
}
