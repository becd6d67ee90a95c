package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/al-chunker/internal/alsource"
	"github.com/dshills/al-chunker/internal/indexer"
)

func newIndexCommand() *cobra.Command {
	var (
		dbPath          string
		repo            string
		ref             string
		githubToken     string
		adoOrg          string
		adoProject      string
		adoRepo         string
		adoToken        string
		ignore          []string
		workers         int
		crossReferences bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a local directory, GitHub repository, or Azure DevOps repository into the searchable index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src alsource.FileSource
			var rootLabel string

			switch {
			case repo != "":
				adapter := alsource.NewGitHubAdapter(repo)
				adapter.Ref = ref
				adapter.Token = githubToken
				src = adapter
				rootLabel = fmt.Sprintf("%s@%s", repo, ref)
			case adoOrg != "" || adoProject != "" || adoRepo != "":
				if adoOrg == "" || adoProject == "" || adoRepo == "" {
					return fmt.Errorf("index requires --ado-org, --ado-project, and --ado-repo together")
				}
				adapter := alsource.NewAzureDevOpsAdapter(adoOrg, adoProject, adoRepo)
				adapter.Ref = ref
				adapter.Token = adoToken
				src = adapter
				rootLabel = fmt.Sprintf("%s/%s/%s@%s", adoOrg, adoProject, adoRepo, ref)
			case len(args) == 1:
				src = &alsource.LocalAdapter{Paths: []string{args[0]}, IgnorePatterns: ignore}
				rootLabel = args[0]
			default:
				return fmt.Errorf("index requires a path argument, --repo, or --ado-org/--ado-project/--ado-repo")
			}

			store, err := openStorage(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg := indexer.DefaultConfig()
			if workers > 0 {
				cfg.Workers = workers
			}
			cfg.IncludeCrossReferences = crossReferences

			stats, err := indexer.New(store).IndexSource(cmd.Context(), src, rootLabel, &cfg)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", rootLabel, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %s: %d files indexed, %d skipped, %d failed, %d chunks, %s\n",
				rootLabel, stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.ChunksCreated, stats.Duration)
			for _, msg := range stats.ErrorMessages {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the index database (default ~/.al-chunker/index.db)")
	cmd.Flags().StringVar(&repo, "repo", "", `GitHub repository "owner/name" to index instead of a local path`)
	cmd.Flags().StringVar(&ref, "ref", "main", "branch, tag, or commit SHA to index when --repo is set")
	cmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub token for private repositories or higher rate limits")
	cmd.Flags().StringVar(&adoOrg, "ado-org", "", "Azure DevOps organization to index instead of a local path")
	cmd.Flags().StringVar(&adoProject, "ado-project", "", "Azure DevOps project (required with --ado-org)")
	cmd.Flags().StringVar(&adoRepo, "ado-repo", "", "Azure DevOps repository (required with --ado-org)")
	cmd.Flags().StringVar(&adoToken, "ado-token", "", "Azure DevOps personal access token")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "glob patterns to exclude when indexing a local directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of files processed concurrently (default: number of CPUs)")
	cmd.Flags().BoolVar(&crossReferences, "cross-references", true, "build and store cross_reference chunks")

	return cmd
}
