// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/rag"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask a question about BeagleBoard documentation",
		Long: `Retrieve relevant documentation chunks from the vector store and answer the
prompt with the configured LLM backend. Flags override the saved defaults.`,
		RunE: runChat,
	}

	cmd.Flags().StringP("prompt", "p", "", "question to answer (required)")
	cmd.Flags().StringP("backend", "b", "", "LLM backend override (groq or ollama)")
	cmd.Flags().StringP("model", "m", "", "model override")
	cmd.Flags().Float64P("temperature", "t", 0, "sampling temperature override in [0, 1]")
	cmd.Flags().StringP("strategy", "s", "", "search strategy: adaptive, multi-query, context-aware, default")
	cmd.Flags().Int("top-k", rag.DefaultTopK, "number of chunks to retrieve")
	cmd.Flags().Bool("sources", false, "print source links after the answer")
	cmd.Flags().Bool("plain", false, "disable markdown rendering")

	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Initialized {
		return bmerr.New(bmerr.CodeCLINotInitialized,
			"not initialized; run 'beaglemind init' first")
	}

	req, backendName, err := chatRequest(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	found, err := store.HasCollection(ctx)
	if err != nil {
		return err
	}
	if !found {
		return bmerr.New(bmerr.CodeVectorCollectionNotFound,
			"collection "+cfg.CollectionName+" not found; run 'beaglemind ingest' first",
			bmerr.FieldCollection(cfg.CollectionName))
	}

	llm, err := newLLMBackend(backendName, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = llm.Close() }()

	engine := rag.NewEngine(store, newEmbedder(cfg), llm)
	answer, err := engine.Ask(ctx, req)
	if err != nil {
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")
	sources, _ := cmd.Flags().GetBool("sources")
	return printAnswer(cmd.OutOrStdout(), answer, plain, sources)
}

// chatRequest resolves the effective chat parameters (flag over saved
// config) and validates them before anything touches the network.
func chatRequest(cmd *cobra.Command, cfg *config.Config) (rag.AskRequest, string, error) {
	prompt, _ := cmd.Flags().GetString("prompt")

	backendName := cfg.DefaultBackend
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		backendName = v
	}
	if !backend.IsValidName(backendName) {
		return rag.AskRequest{}, "", bmerr.New(bmerr.CodeBackendUnknown,
			"unknown backend "+backendName, bmerr.FieldBackend(backendName))
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		if backendName == cfg.DefaultBackend {
			model = cfg.DefaultModel
		} else {
			var err error
			model, err = backend.DefaultModel(backendName)
			if err != nil {
				return rag.AskRequest{}, "", err
			}
		}
	}
	if _, err := backend.LookupModel(backendName, model); err != nil {
		return rag.AskRequest{}, "", err
	}

	temperature := cfg.DefaultTemperature
	if cmd.Flags().Changed("temperature") {
		temperature, _ = cmd.Flags().GetFloat64("temperature")
	}

	strategyFlag, _ := cmd.Flags().GetString("strategy")
	strategy, err := rag.ParseStrategy(strategyFlag)
	if err != nil {
		return rag.AskRequest{}, "", err
	}

	topK, _ := cmd.Flags().GetInt("top-k")

	return rag.AskRequest{
		Prompt:      prompt,
		Model:       model,
		Temperature: temperature,
		Strategy:    strategy,
		TopK:        topK,
	}, backendName, nil
}

func printAnswer(w io.Writer, answer *rag.Answer, plain, sources bool) error {
	if plain {
		fmt.Fprintln(w, answer.Content)
	} else {
		fmt.Fprint(w, renderMarkdown(answer.Content))
	}

	if sources && len(answer.Sources) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Sources"))
		for _, s := range answer.Sources {
			link := s.SourceLink
			if link == "" {
				link = s.FilePath
			}
			fmt.Fprintf(w, "  %s %s\n", dimStyle.Render(fmt.Sprintf("%.3f", s.Score)), link)
		}
	}
	return nil
}

// renderMarkdown pretty-prints the answer, falling back to the raw text
// when the renderer cannot be built.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return content + "\n"
	}
	out, err := r.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}
