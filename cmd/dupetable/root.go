// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dupetable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "dupetable",
		Short: "Duplicating table recipe generator",
		Long: TitleStyle.Render("dupetable") + SubtitleStyle.Render(" - Duplicating table recipe generator") + `

dupetable turns Minecraft item catalogs into "duplicating table" recipe
packs. Each stackable item gets a shaped recipe that returns a copy of the
item placed in the table's centre slot.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Scaffold the data directory with: dupetable init
  2. Serve the web UI with:             dupetable serve
  3. Or build a pack offline with:      dupetable generate items.txt

` + SubtitleStyle.Render("Examples:") + `
  dupetable classify items.json          Show which items can be duplicated
  dupetable generate --format datapack   Build a Java datapack
  dupetable config show                  Show current configuration
  dupetable issue template-not-found     Explain a common problem`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $HOME/.config/dupetable/config.cue)")

	root.AddCommand(
		newServeCommand(app),
		newGenerateCommand(app),
		newClassifyCommand(app),
		newInitCommand(app),
		newConfigCommand(app),
		newIssueCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions, and the full chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// reportFailure prints err, plus its catalog entry in verbose mode, and
// returns an ExitError carrying code.
func (a *App) reportFailure(cmd *cobra.Command, err error, code int) error {
	cmd.SilenceErrors = true
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
	if is := issue.ForError(err); is != nil && a.verbose {
		if rendered, renderErr := is.Render("dark"); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return &ExitError{Code: code, Err: err}
}
