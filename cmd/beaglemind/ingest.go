// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <repository-url>",
		Short: "Index a GitHub repository into the vector store",
		Long: `Fetch a GitHub repository, chunk and analyze its documentation and source
files, embed the chunks with Ollama, and insert them into the configured
vector store collection.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().String("branch", "", "branch to index (default main, falling back to master)")
	cmd.Flags().String("collection", "", "collection override")
	cmd.Flags().String("github-token", "", "GitHub API token (default GITHUB_TOKEN)")
	cmd.Flags().Int("workers", ingest.DefaultWorkers, "concurrent file fetches")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if collection, _ := cmd.Flags().GetString("collection"); collection != "" {
		cfg.CollectionName = collection
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	token, _ := cmd.Flags().GetString("github-token")
	branch, _ := cmd.Flags().GetString("branch")
	workers, _ := cmd.Flags().GetInt("workers")

	ing := ingest.New(
		ingest.NewGitHubClient("", "").WithToken(token),
		newEmbedder(cfg),
		store,
	)

	summary, err := ing.Run(ctx, ingest.Options{
		RepoURL: args[0],
		Branch:  branch,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	printSummary(cmd, cfg.CollectionName, summary)
	return nil
}

func printSummary(cmd *cobra.Command, collection string, s *ingest.Summary) {
	w := cmd.OutOrStdout()
	elapsed := s.Elapsed.Round(time.Millisecond)

	rate := 0.0
	if secs := s.Elapsed.Seconds(); secs > 0 {
		rate = float64(s.ChunksGenerated) / secs
	}

	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(
		"Indexed %s/%s (%s) into %s", s.Repo.Owner, s.Repo.Name, s.Repo.Branch, collection)))
	fmt.Fprintf(w, "  files:       %d processed of %d listed\n", s.FilesProcessed, s.FilesListed)
	fmt.Fprintf(w, "  chunks:      %d\n", s.ChunksGenerated)
	fmt.Fprintf(w, "  images:      %d\n", s.ImagesFound)
	fmt.Fprintf(w, "  avg quality: %.2f\n", s.AvgQualityScore)
	fmt.Fprintf(w, "  elapsed:     %s (%.1f chunks/s)\n", elapsed, rate)
}
