// Command alchunk is the command-line front end for the chunking library,
// wrapping the same discover -> parse -> chunk -> store pipeline
// internal/mcpserver exposes over the Model Context Protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/al-chunker/internal/alstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alchunk",
		Short:         "Parse and chunk Business Central AL source for retrieval-augmented generation",
		Version:       fmt.Sprintf("%s (build %s, driver %s/%s)", version, buildTime, alstore.DriverName, alstore.BuildMode),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newChunkCommand())
	cmd.AddCommand(newIndexCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newServeCommand())
	return cmd
}
