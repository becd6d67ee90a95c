package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a keyword search over every chunk indexed so far",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 100 {
				return fmt.Errorf("--limit must be between 1 and 100, got %d", limit)
			}
			store, err := openStorage(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			results, err := store.SearchChunks(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}

			type hit struct {
				FilePath  string  `json:"file_path"`
				ChunkType string  `json:"chunk_type"`
				Relevance float64 `json:"relevance"`
				Content   string  `json:"content"`
			}
			hits := make([]hit, len(results))
			for i, r := range results {
				hits[i] = hit{
					FilePath:  r.Chunk.Metadata.FilePath,
					ChunkType: r.Chunk.Metadata.ChunkType,
					Relevance: r.Relevance,
					Content:   r.Chunk.Content,
				}
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"query":   args[0],
				"count":   len(hits),
				"results": hits,
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the index database (default ~/.al-chunker/index.db)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results to return (1-100)")

	return cmd
}
