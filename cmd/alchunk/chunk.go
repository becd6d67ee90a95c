package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/al-chunker/internal/alserialize"
	"github.com/dshills/al-chunker/internal/alxref"
	"github.com/dshills/al-chunker/internal/chunker"
)

func newChunkCommand() *cobra.Command {
	var (
		filePath        string
		maxChunkChars   int
		minChunkChars   int
		contextHeader   bool
		tokenEstimate   bool
		crossReferences bool
		jsonl           bool
	)

	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Chunk a single AL source file and print the resulting chunks as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source string
			if len(args) == 1 && args[0] != "-" {
				filePath = args[0]
				data, err := os.ReadFile(filePath)
				if err != nil {
					return fmt.Errorf("reading %s: %w", filePath, err)
				}
				source = string(data)
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				source = string(data)
			}

			cfg := chunker.Config{
				MaxChunkChars:        maxChunkChars,
				MinChunkChars:        minChunkChars,
				IncludeContextHeader: contextHeader,
				EstimateTokens:       tokenEstimate,
			}

			chunks, parseResult := chunker.New().ChunkFile(source, filePath, cfg)

			if crossReferences {
				objects := make([]alxref.SourceObject, len(parseResult.Objects))
				for i, obj := range parseResult.Objects {
					objects[i] = alxref.SourceObject{Object: obj, FilePath: filePath}
				}
				chunks = append(chunks, alxref.BuildCrossReferenceChunks(objects, tokenEstimate)...)
			}

			var out []byte
			var err error
			if jsonl {
				out, err = alserialize.ChunksToJSONL(chunks)
			} else {
				out, err = alserialize.ChunksToJSON(chunks)
			}
			if err != nil {
				return fmt.Errorf("serializing chunks: %w", err)
			}

			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			if !jsonl {
				fmt.Fprintln(cmd.OutOrStdout())
			}

			for _, d := range parseResult.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d: %s\n", filePath, d.Line, d.Message)
			}
			if parseResult.HasDiagnostics() {
				return errDiagnosticsReported
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChunkChars, "max-chunk-chars", 1500, "size above which a whole object/section is split further")
	cmd.Flags().IntVar(&minChunkChars, "min-chunk-chars", 100, "advisory minimum chunk size")
	cmd.Flags().BoolVar(&contextHeader, "context-header", true, "prefix non-whole_object chunks with a context header")
	cmd.Flags().BoolVar(&tokenEstimate, "token-estimate", true, "compute each chunk's token_estimate")
	cmd.Flags().BoolVar(&crossReferences, "cross-references", true, "append cross_reference chunks for this file's own objects")
	cmd.Flags().BoolVar(&jsonl, "jsonl", false, "emit newline-delimited JSON instead of a JSON array")

	return cmd
}

// errDiagnosticsReported signals that chunking succeeded but the source had
// non-fatal diagnostics, already printed to stderr.
var errDiagnosticsReported = errors.New("source had diagnostics")
