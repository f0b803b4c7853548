// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/config"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// --- lipgloss styles ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up BeagleMind",
		Long: `Connect to the vector store, verify the documentation collection, and write
the state file (~/` + stateFileName + `).

With --collection the setup runs non-interactively. Without it an
interactive wizard walks through the choices.`,
		RunE: runInit,
	}

	cmd.Flags().StringP("collection", "c", "", "vector store collection to use")
	cmd.Flags().StringP("backend", "b", config.DefaultBackend, "default LLM backend (groq or ollama)")
	cmd.Flags().StringP("model", "m", "", "default model (defaults to the backend's first model)")
	cmd.Flags().Float64P("temperature", "t", config.DefaultTemperature, "default sampling temperature in [0, 1]")
	cmd.Flags().String("vector-backend", config.DefaultVectorBackend, "vector store backend (milvus or sqlite)")
	cmd.Flags().BoolP("force", "f", false, "overwrite an existing state file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	existing, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if existing.Initialized && !force {
		return bmerr.New(bmerr.CodeConfigAlreadyInitialized,
			"already initialized; use --force to overwrite the state file")
	}

	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		return runInitWizard(cmd)
	}

	backendName, _ := cmd.Flags().GetString("backend")
	model, _ := cmd.Flags().GetString("model")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	vectorBackend, _ := cmd.Flags().GetString("vector-backend")

	cfg, err := buildInitConfig(collection, backendName, model, temperature, vectorBackend)
	if err != nil {
		return err
	}

	found, err := verifyCollection(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !found {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(
			"warning: collection %q does not exist yet; run 'beaglemind ingest' to populate it", collection)))
	}

	if err := cfg.Save(configPath(cmd)); err != nil {
		return err
	}

	fmt.Fprintln(w, successStyle.Render("BeagleMind initialized."))
	fmt.Fprintf(w, "  collection:  %s (%s)\n", cfg.CollectionName, cfg.VectorBackend)
	fmt.Fprintf(w, "  backend:     %s\n", cfg.DefaultBackend)
	fmt.Fprintf(w, "  model:       %s\n", cfg.DefaultModel)
	fmt.Fprintf(w, "  temperature: %g\n", cfg.DefaultTemperature)
	return nil
}

// buildInitConfig assembles and validates the state from init inputs.
func buildInitConfig(collection, backendName, model string, temperature float64, vectorBackend string) (*config.Config, error) {
	if !backend.IsValidName(backendName) {
		return nil, bmerr.New(bmerr.CodeBackendUnknown,
			"unknown backend "+backendName, bmerr.FieldBackend(backendName))
	}
	if model == "" {
		var err error
		model, err = backend.DefaultModel(backendName)
		if err != nil {
			return nil, err
		}
	} else if _, err := backend.LookupModel(backendName, model); err != nil {
		return nil, err
	}

	cfg := config.New()
	cfg.CollectionName = collection
	cfg.DefaultBackend = backendName
	cfg.DefaultModel = model
	cfg.DefaultTemperature = temperature
	cfg.VectorBackend = vectorBackend
	cfg.Initialized = true

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

// verifyCollection connects to the vector store and reports whether the
// collection exists. Connection failures are hard errors; a missing
// collection is not.
func verifyCollection(ctx context.Context, cfg *config.Config) (bool, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer func() { _ = store.Close() }()

	return store.HasCollection(ctx)
}

// --- interactive wizard ---

type initWizardStep int

const (
	stepCollection initWizardStep = iota
	stepBackend
	stepVerify
	stepDone
	stepError
)

type (
	verifiedMsg  struct{ found bool }
	verifyErrMsg struct{ err error }
	savedMsg     struct{ path string }
)

var wizardBackends = []string{backend.NameGroq, backend.NameOllama}

type initModel struct {
	step            initWizardStep
	collectionInput textinput.Model
	backendIdx      int
	spinner         spinner.Model
	cfg             *config.Config
	cfgPath         string
	collectionFound bool
	errFinal        error
}

func newInitModel(cfgPath string) initModel {
	collection := textinput.New()
	collection.Placeholder = config.DefaultCollection
	collection.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return initModel{
		step:            stepCollection,
		collectionInput: collection,
		spinner:         sp,
		cfgPath:         cfgPath,
	}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case verifiedMsg:
		m.collectionFound = msg.found
		return m, saveConfigCmd(m.cfg, m.cfgPath)

	case verifyErrMsg:
		m.step = stepError
		m.errFinal = msg.err
		return m, tea.Quit

	case savedMsg:
		m.step = stepDone
		return m, tea.Quit
	}

	if m.step == stepCollection {
		var cmd tea.Cmd
		m.collectionInput, cmd = m.collectionInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m initModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepCollection:
		switch msg.String() {
		case "enter":
			collection := strings.TrimSpace(m.collectionInput.Value())
			if collection == "" {
				collection = config.DefaultCollection
				m.collectionInput.SetValue(collection)
			}
			m.step = stepBackend
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.collectionInput, cmd = m.collectionInput.Update(msg)
		return m, cmd

	case stepBackend:
		switch msg.String() {
		case "up", "k":
			if m.backendIdx > 0 {
				m.backendIdx--
			}
		case "down", "j":
			if m.backendIdx < len(wizardBackends)-1 {
				m.backendIdx++
			}
		case "enter":
			cfg, err := buildInitConfig(
				strings.TrimSpace(m.collectionInput.Value()),
				wizardBackends[m.backendIdx], "",
				config.DefaultTemperature, config.DefaultVectorBackend)
			if err != nil {
				m.step = stepError
				m.errFinal = err
				return m, tea.Quit
			}
			m.cfg = cfg
			m.step = stepVerify
			return m, tea.Batch(m.spinner.Tick, verifyCollectionCmd(cfg))
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m initModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  BeagleMind Setup  ") + "\n\n")

	switch m.step {
	case stepCollection:
		b.WriteString(promptStyle.Render("Step 1/2: Collection name") + "\n\n")
		b.WriteString(m.collectionInput.View() + "\n")
		b.WriteString("\n" + dimStyle.Render("enter to continue  ctrl+c to quit"))

	case stepBackend:
		b.WriteString(promptStyle.Render("Step 2/2: Default LLM backend") + "\n\n")
		for i, name := range wizardBackends {
			if i == m.backendIdx {
				b.WriteString(selectedStyle.Render("  > "+name) + "\n")
			} else {
				b.WriteString(dimStyle.Render("    "+name) + "\n")
			}
		}
		b.WriteString("\n" + dimStyle.Render("↑/↓ to navigate  enter to select  q to quit"))

	case stepVerify:
		b.WriteString(m.spinner.View() + " Connecting to the vector store…\n")

	case stepDone:
		b.WriteString(successStyle.Render("  Setup complete!  ") + "\n\n")
		if !m.collectionFound {
			b.WriteString(warnStyle.Render("Collection not found yet — run 'beaglemind ingest' to populate it.") + "\n\n")
		}
		b.WriteString("Ask a question with " + promptStyle.Render(`beaglemind chat -p "..."`) + "\n")
		b.WriteString("Check your setup with " + promptStyle.Render("beaglemind doctor") + "\n")

	case stepError:
		b.WriteString(errorStyle.Render("Setup failed: "+m.errFinal.Error()) + "\n")
	}

	return boxStyle.Render(b.String())
}

func verifyCollectionCmd(cfg *config.Config) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		found, err := verifyCollection(ctx, cfg)
		if err != nil {
			return verifyErrMsg{err: err}
		}
		return verifiedMsg{found: found}
	}
}

func saveConfigCmd(cfg *config.Config, path string) tea.Cmd {
	return func() tea.Msg {
		if err := cfg.Save(path); err != nil {
			return verifyErrMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func runInitWizard(cmd *cobra.Command) error {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(f) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			"beaglemind init requires an interactive terminal without --collection.\n"+
				"Run 'beaglemind init --collection <name>' to set up non-interactively.")
		return bmerr.New(bmerr.CodeCLISetupFailure, "beaglemind init: not an interactive terminal")
	}

	p := tea.NewProgram(newInitModel(configPath(cmd)), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return bmerr.Errorf(bmerr.CodeCLISetupFailure, "init wizard error: %w", err)
	}

	fm, ok := finalModel.(initModel)
	if !ok {
		return bmerr.New(bmerr.CodeCLISetupFailure, "unexpected model type after wizard")
	}
	if fm.errFinal != nil {
		return fm.errFinal
	}
	return nil
}

// isTerminal reports whether f is a terminal file descriptor.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
