package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report how many files and chunks are indexed, and the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, err := store.GetStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			resp := map[string]interface{}{
				"files_indexed": status.FilesIndexed,
				"chunks_stored": status.ChunksStored,
			}
			if status.LastRun != nil {
				run := map[string]interface{}{
					"id":                status.LastRun.ID,
					"root_path":         status.LastRun.RootPath,
					"files_indexed":     status.LastRun.FilesIndexed,
					"chunks_written":    status.LastRun.ChunksWritten,
					"diagnostics_count": status.LastRun.DiagnosticsCount,
					"started_at":        status.LastRun.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
				}
				if status.LastRun.FinishedAt != nil {
					run["finished_at"] = status.LastRun.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
				}
				resp["last_run"] = run
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the index database (default ~/.al-chunker/index.db)")

	return cmd
}
