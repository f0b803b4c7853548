// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root beaglemind command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "beaglemind",
		Short:         "BeagleMind — documentation assistant for the BeagleBoard ecosystem",
		Long:          "BeagleMind answers questions about BeagleBoard hardware and software by retrieving indexed documentation and asking an LLM backend (Groq or Ollama).",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "path to state file (default ~/"+stateFileName+")")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newListModelsCmd(),
		newChatCmd(),
		newIngestCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogging keeps diagnostics quiet unless --verbose is set.
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelWarn
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
