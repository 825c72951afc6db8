package main

import (
	"fmt"
	"strconv"

	"runrun-importer/runrun/application"

	"github.com/spf13/cobra"
)

func newFieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields BOARD_ID",
		Short: "Show a board's custom fields and choice options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || boardID <= 0 {
				return fmt.Errorf("invalid board id %q", args[0])
			}
			if err := a.cfg.validate(true); err != nil {
				return err
			}

			stopTracing, err := a.tracing()
			if err != nil {
				return err
			}
			defer stopTracing()

			cache := application.NewSchemaCache(a.client(nil), a.logger)
			schema, err := cache.Resolve(cmd.Context(), boardID)
			if err != nil {
				return err
			}
			return writeSchemaYAML(cmd.OutOrStdout(), boardID, schema)
		},
	}
}
