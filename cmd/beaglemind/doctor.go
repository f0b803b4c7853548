// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/beagleboard/beaglemind/internal/backend/ollama"
	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/secrets"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the state file, vector store connection, LLM backend credentials, and disk space.",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	cfg, cfgErr := loadConfig(cmd)

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Config", func() string { return checkConfig(cmd, cfg, cfgErr) }},
		{"Vector Store", func() string { return checkVectorStore(ctx, cfg, cfgErr) }},
		{"Groq Key", func() string { return checkGroqKey(cfg, cfgErr) }},
		{"Ollama", func() string { return checkOllama(ctx) }},
		{"Disk Space", checkDiskSpace},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-14s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}
	return nil
}

func checkBinary() string {
	return fmt.Sprintf("beaglemind %s (%s/%s, Go %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(cmd *cobra.Command, cfg *config.Config, cfgErr error) string {
	if cfgErr != nil {
		return fmt.Sprintf("error: %s", cfgErr)
	}

	path := configPath(cmd)
	if path == "" {
		path, _ = config.DefaultPath()
	}
	if !cfg.Initialized {
		return fmt.Sprintf("not initialized (run 'beaglemind init'), would write %s", path)
	}
	return fmt.Sprintf("%s (collection %q, backend %s)", path, cfg.CollectionName, cfg.DefaultBackend)
}

func checkVectorStore(ctx context.Context, cfg *config.Config, cfgErr error) string {
	if cfgErr != nil {
		return "skipped (config error)"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("unreachable: %s", err)
	}
	defer func() { _ = store.Close() }()

	found, err := store.HasCollection(ctx)
	if err != nil {
		return fmt.Sprintf("connected (%s), collection check failed: %s", store.Name(), err)
	}
	if !found {
		return fmt.Sprintf("connected (%s), collection %q missing — run 'beaglemind ingest'", store.Name(), cfg.CollectionName)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Sprintf("connected (%s), collection %q present", store.Name(), cfg.CollectionName)
	}
	return fmt.Sprintf("connected (%s), collection %q with %d chunks", store.Name(), cfg.CollectionName, count)
}

func checkGroqKey(cfg *config.Config, cfgErr error) string {
	configValue := ""
	if cfgErr == nil {
		configValue = cfg.GroqAPIKey
	}

	key, err := secrets.ResolveGroqAPIKey(secrets.NewKeyringStore(), configValue)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	if key == "" {
		return "not set (export GROQ_API_KEY or store it in the keyring)"
	}
	return "present"
}

func checkOllama(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	host := ollama.HostFromEnv()
	b := ollama.New(ollama.Config{Host: host})
	defer func() { _ = b.Close() }()

	if !b.Available(ctx) {
		return fmt.Sprintf("not reachable at %s", host)
	}

	models, err := b.ListInstalled(ctx)
	if err != nil {
		return fmt.Sprintf("reachable at %s", host)
	}
	return fmt.Sprintf("reachable at %s, %d model(s) installed", host, len(models))
}

func checkDiskSpace() string {
	path, err := dataDir()
	if err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
