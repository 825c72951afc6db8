package main

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"runrun-importer/runrun/application"
	"runrun-importer/runrun/infra"

	"github.com/spf13/cobra"
)

var errRowsFailed = errors.New("some rows failed")

func newImportCmd(a *app) *cobra.Command {
	var (
		delimiter     string
		dryRun        bool
		resolveFields bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Create one task per row",
		Long: `Standard columns: title and board_id (required), description, desired_date,
project_id, type_id, assignee_id. Columns starting with custom_ are matched
against the board's custom fields and formatted by field type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if err := cfg.validate(!dryRun || resolveFields); err != nil {
				return err
			}

			comma, size := utf8.DecodeRuneInString(delimiter)
			if size == 0 || size != len(delimiter) {
				return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := infra.NewCSVRows(f, comma)
			if err != nil {
				return err
			}

			stopTracing, err := a.tracing()
			if err != nil {
				return err
			}
			defer stopTracing()

			mem := infra.NewMemoryStatsStore()
			stats, closeStats, err := a.stats(ctx, mem)
			if err != nil {
				return err
			}
			defer closeStats()

			client := a.client(stats)
			var src application.SchemaSource = client
			if dryRun && !resolveFields {
				a.logger.Info("dry-run: no API calls, custom fields will be skipped (use --resolve-fields to validate them)")
				src = application.EmptySchemaSource{}
			}

			imp := &application.Importer{
				Schemas: application.NewSchemaCache(src, a.logger),
				Builder: application.Builder{
					Formatter:    application.Formatter{Logger: a.logger},
					CustomPrefix: cfg.customPrefix,
				},
				Defaults: cfg.defaults,
				Creator:  client,
				Stats:    stats,
				RunID:    a.runID,
				Logger:   a.logger,
			}
			if dryRun {
				sink, err := payloadPrinter(cmd.OutOrStdout(), format)
				if err != nil {
					return err
				}
				imp.DryRun = sink
			}

			a.logger.Info("import started", "file", args[0], "dry_run", dryRun,
				"limiter", cfg.limiter, "max_per_minute", cfg.maxPerMinute, "window", cfg.window())

			sum, runErr := imp.Run(ctx, rows)

			req := mem.Requests()
			a.logger.Info("import finished", "ok", sum.OK, "fail", sum.Fail, "elapsed", sum.Elapsed,
				"requests_ok", req.OK, "requests_429", req.RateLimited, "requests_failed", req.Errors)
			fmt.Fprintf(cmd.OutOrStdout(), "\nDone: OK=%d FAIL=%d\n", sum.OK, sum.Fail)

			if runErr != nil {
				return runErr
			}
			if sum.Fail > 0 {
				return errRowsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", ",", "CSV field delimiter")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print payloads instead of calling the API")
	cmd.Flags().BoolVar(&resolveFields, "resolve-fields", false, "with --dry-run, fetch board custom fields and validate custom_* columns")
	cmd.Flags().StringVar(&format, "format", "json", "dry-run output format: json|yaml")
	cmd.Flags().Int("max-per-minute", 100, "maximum requests per window")
	_ = a.v.BindPFlag("max_per_minute", cmd.Flags().Lookup("max-per-minute"))
	return cmd
}
