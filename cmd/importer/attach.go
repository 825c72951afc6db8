package main

import (
	"fmt"

	"runrun-importer/runrun"

	"github.com/spf13/cobra"
)

func newAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach TASK_ID FILE",
		Short: "Upload a file and attach it to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.validate(true); err != nil {
				return err
			}

			up := &runrun.Uploader{
				Client:     a.client(nil),
				StorageURL: a.cfg.storageURL,
				Logger:     a.logger,
			}
			doc, err := up.Attach(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "document %s attached to task %s\n", doc.ID, args[0])
			return nil
		},
	}
}
