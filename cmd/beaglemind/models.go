// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/backend"
)

func newListModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-models",
		Short: "List available models",
		Long:  "Print the supported models per backend. With --backend only that backend's models are shown.",
		RunE:  runListModels,
	}

	cmd.Flags().StringP("backend", "b", "", "backend to list (groq or ollama)")

	return cmd
}

func runListModels(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("backend")

	names := backend.Names()
	if name != "" {
		names = []string{name}
	}

	w := cmd.OutOrStdout()
	for i, n := range names {
		models, err := backend.Models(n)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		printModels(w, n, models)
	}
	return nil
}

func printModels(w io.Writer, name string, models []backend.ModelInfo) {
	fmt.Fprintln(w, titleStyle.Render(strings.ToUpper(name)))
	for i, m := range models {
		marker := "  "
		if i == 0 {
			marker = dimStyle.Render("* ")
		}
		fmt.Fprintf(w, "%s%s\n", marker, m.ID)
		if m.Description != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render(m.Description))
		}
	}
	if len(models) > 0 {
		fmt.Fprintln(w, dimStyle.Render("* default"))
	}
}
