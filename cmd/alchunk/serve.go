package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/al-chunker/internal/alstore"
	"github.com/dshills/al-chunker/internal/mcpserver"
)

func newServeCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr)
			log.Printf("al-chunker MCP server v%s starting...", version)
			log.Printf("build mode: %s, driver: %s", alstore.BuildMode, alstore.DriverName)

			if dbPath == "" {
				dbPath = os.Getenv("AL_CHUNKER_DB_PATH")
			}
			if dbPath == "" {
				dbPath = mcpserver.DefaultDBPath
			}

			srv, err := mcpserver.NewServer(dbPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				log.Println("MCP server ready, listening on stdio...")
				errChan <- srv.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				log.Printf("received signal %v, shutting down...", sig)
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the index database (default $AL_CHUNKER_DB_PATH or ~/.al-chunker/index.db)")

	return cmd
}
