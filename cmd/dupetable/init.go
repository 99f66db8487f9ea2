// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/config"
	"github.com/dupetable/dupetable/internal/fsutil"
	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/recipe"
)

type initOptions struct {
	force      bool
	configFile string
}

func newInitCommand(app *App) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the data directory",
		Long: `Create the data directory and write the default recipe template into it.
Existing files are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, app, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing recipe template")
	cmd.Flags().StringVar(&opts.configFile, "write-config", "", "also write a default config.cue to this path")
	return cmd
}

func runInit(cmd *cobra.Command, app *App, opts *initOptions) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}
	paths := cfg.Paths.Resolved()
	w := app.stdout

	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		return app.reportFailure(cmd, issue.WrapWithContext(err, "create data directory", paths.DataDir), 1)
	}
	fmt.Fprintf(w, "%s Data directory %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(paths.DataDir))

	_, statErr := os.Stat(paths.Template)
	switch {
	case statErr == nil && !opts.force:
		fmt.Fprintf(w, "%s Recipe template %s already exists\n", SubtitleStyle.Render("•"), CmdStyle.Render(paths.Template))
	default:
		if err := fsutil.WriteFile(paths.Template, recipe.DefaultTemplate()); err != nil {
			return app.reportFailure(cmd, issue.WrapWithContext(err, "write recipe template", paths.Template), 1)
		}
		fmt.Fprintf(w, "%s Wrote recipe template %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(paths.Template))
	}

	if opts.configFile != "" {
		written, err := config.WriteDefault(opts.configFile)
		if err != nil {
			return app.reportFailure(cmd, issue.WrapWithContext(err, "write config", opts.configFile), 1)
		}
		if written {
			fmt.Fprintf(w, "%s Wrote config %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(opts.configFile))
		} else {
			fmt.Fprintf(w, "%s Config %s already exists\n", SubtitleStyle.Render("•"), CmdStyle.Render(opts.configFile))
		}
	}

	if _, err := os.Stat(paths.PackIcon); err != nil {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("! No pack icon at %s; behavior packs will ship without one", paths.PackIcon)))
	}
	return nil
}
