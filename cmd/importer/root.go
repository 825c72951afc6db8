package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"runrun-importer/runrun"
	"runrun-importer/runrun/domain"
	"runrun-importer/runrun/infra"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// app guarda o que os subcomandos compartilham: config, logger e id da execução.
type app struct {
	v          *viper.Viper
	configPath string
	envFile    string
	verbose    bool

	cfg    config
	runID  string
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:   "importer",
		Short: "Bulk-create Runrun.it tasks from a spreadsheet",
		Long: `importer creates one Runrun.it task per spreadsheet row (CSV export),
throttling requests to the account's rate limit, waiting out 429 responses
until the server's reset instant, and validating custom_* columns against
each board's custom field definitions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default ./importer.yaml if present)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with credentials (ignored if missing)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newImportCmd(a),
		newFieldsCmd(a),
		newAttachCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "importer %s\ncommit: %s\n", appVersion, appCommit)
			},
		},
	)
	return root
}

func (a *app) init() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	if err := readConfigFile(a.v, a.configPath); err != nil {
		return err
	}
	a.cfg = configFromViper(a.v)
	a.runID = uuid.NewString()

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", a.runID)
	return nil
}

// limiter escolhe a estratégia configurada.
func (a *app) limiter() domain.Limiter {
	if a.cfg.limiter == "token" {
		return infra.NewTokenBucket(a.cfg.maxPerMinute, a.cfg.window())
	}
	return infra.NewSlidingWindow(a.cfg.maxPerMinute, a.cfg.window(), infra.WithLogger(a.logger))
}

// stats devolve o store em memória, mais o Redis quando configurado.
// A função de fechamento deve ser chamada ao final.
func (a *app) stats(ctx context.Context, mem *infra.MemoryStatsStore) (domain.StatsStore, func(), error) {
	if a.cfg.statsRedisAddr == "" {
		return mem, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.statsRedisAddr,
		Password: a.cfg.statsRedisPassword,
		DB:       a.cfg.statsRedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping error: %w", err)
	}

	rs := infra.NewRedisStatsStore(rdb,
		infra.WithStatsPrefix(a.cfg.statsPrefix),
		infra.WithStatsTTL(a.cfg.statsTTL),
	)
	a.logger.Info("stats enabled", "redis_addr", a.cfg.statsRedisAddr, "prefix", rs.Prefix())
	return infra.MultiStats{mem, rs}, func() { _ = rdb.Close() }, nil
}

func (a *app) tracing() (func(), error) {
	shutdown, err := infra.InitTracing("runrun-importer", a.cfg.tracingExporter, a.runID, nil)
	if err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			a.logger.Warn("tracing shutdown failed", "error", err)
		}
	}, nil
}

func (a *app) client(stats domain.StatsStore) *runrun.Client {
	return runrun.New(runrun.Options{
		BaseURL:     a.cfg.baseURL,
		AppKey:      a.cfg.appKey,
		UserToken:   a.cfg.userToken,
		Limiter:     a.limiter(),
		HTTPClient:  &http.Client{Timeout: a.cfg.httpTimeout},
		MaxAttempts: a.cfg.maxAttempts,
		Stats:       stats,
		RunID:       a.runID,
		Logger:      a.logger,
	})
}
