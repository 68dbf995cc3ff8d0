package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/document"
	"github.com/goliatone/go-portfolio/pkg/export"
	"github.com/goliatone/go-portfolio/pkg/orchestrator"
	"github.com/goliatone/go-portfolio/pkg/prompt"
	"github.com/goliatone/go-portfolio/pkg/state"
)

// newPromptDriver is swapped in tests.
var newPromptDriver = func(out io.Writer) prompt.PromptDriver {
	return prompt.NewSurveyDriver(out)
}

// --- build ---

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render a portfolio file into a standalone HTML page",
	Long: `Render a portfolio file into a standalone HTML page.

Examples:
  portfolio build --input portfolio.yaml
  portfolio build --input portfolio.yaml --output site/index.html --variant dark`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		themeName, _ := cmd.Flags().GetString("theme")
		variant, _ := cmd.Flags().GetString("variant")
		watch, _ := cmd.Flags().GetBool("watch")

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		req := orchestrator.Request{
			Source:  input,
			Export:  true,
			Theme:   themeName,
			Variant: variant,
		}
		build := func(ctx context.Context) error {
			doc, err := orch.Generate(ctx, req)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := export.WriteFile(output, doc); err != nil {
				return err
			}
			printSuccess("Wrote %s (%d bytes)", output, len(doc))
			return nil
		}

		if err := build(cmd.Context()); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		if output == "-" {
			return errors.New("--watch needs a file --output")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		printStep("Watching %s for changes", input)
		return watchBuild(ctx, input, build)
	},
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a portfolio file as text or preview markup",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		if _, err := orch.Registry().Get(format); err != nil {
			printWarning("available formats: %s", strings.Join(orch.Registry().List(), ", "))
			return err
		}
		out, err := orch.Generate(cmd.Context(), orchestrator.Request{
			Source:   input,
			Renderer: format,
		})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// --- init ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or edit a portfolio file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		session := state.New()
		var seed *document.File
		if _, err := os.Stat(output); err == nil {
			session, seed, err = orch.Session(cmd.Context(), orchestrator.Request{Source: output})
			if err != nil {
				return err
			}
			printStep("Editing %s", output)
		}

		collector := prompt.NewCollector(newPromptDriver(cmd.OutOrStdout()))
		answers, err := collector.Collect(cmd.Context(), session)
		if err != nil {
			return err
		}

		image := answers.ImagePath
		if image == "" && seed != nil {
			image = seed.Image
		}
		file := document.FromSession(session, image)
		if seed != nil {
			file.Theme, file.Variant = seed.Theme, seed.Variant
		}
		if err := file.Save(output); err != nil {
			return err
		}
		printSuccess("Saved %s", output)
		return nil
	},
}

func init() {
	buildCmd.Flags().String("input", "portfolio.yaml", "portfolio file to render")
	buildCmd.Flags().String("output", export.Filename, `output path ("-" for stdout)`)
	buildCmd.Flags().String("theme", "", "theme name (overrides the file)")
	buildCmd.Flags().String("variant", "", "theme variant: light or dark (overrides the file)")
	buildCmd.Flags().Bool("watch", false, "rebuild when the portfolio file or its image changes")

	showCmd.Flags().String("input", "portfolio.yaml", "portfolio file to render")
	showCmd.Flags().String("format", "text", "renderer: text or vanilla")

	initCmd.Flags().String("output", "portfolio.yaml", "portfolio file to write")
}

// newOrchestrator applies the config's theme and log level to headless
// commands.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return orchestrator.New(
		orchestrator.WithTheme(cfg.Theme.Name, cfg.Theme.Variant),
		orchestrator.WithLogger(newLogger(cfg)),
	), nil
}
