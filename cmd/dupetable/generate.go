// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/pack"
	"github.com/dupetable/dupetable/internal/recipe"
	"github.com/dupetable/dupetable/internal/stackability"
)

type generateOptions struct {
	format   string
	out      string
	template string
}

func newGenerateCommand(app *App) *cobra.Command {
	opts := &generateOptions{}
	formats := make([]string, 0, len(pack.Formats()))
	for _, f := range pack.Formats() {
		formats = append(formats, f.String())
	}

	cmd := &cobra.Command{
		Use:   "generate [flags] <catalog files...>",
		Short: "Build a recipe pack from catalog files",
		Long: `Parse the catalog files, drop non-stackable items and write a recipe
pack archive without starting the web service.

Supported formats: ` + strings.Join(formats, ", "),
		Example: `  dupetable generate items.txt
  dupetable generate --format behavior_pack --out table.mcaddon blocks.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, app, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", pack.FormatStandard.String(), "archive layout")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output archive (default minecraft_recipes_<format>.zip)")
	cmd.Flags().StringVar(&opts.template, "template", "", "recipe template (default paths.template)")
	return cmd
}

func runGenerate(cmd *cobra.Command, app *App, opts *generateOptions, args []string) error {
	ctx := cmd.Context()

	format, err := pack.ParseFormat(opts.format)
	if err != nil {
		return app.reportFailure(cmd, issue.NewErrorContext().
			WithOperation("select format").
			WithResource(opts.format).
			WithSuggestion("Use one of: standard, datapack, behavior_pack, complete_pack, custom").
			Wrap(err).
			Build(), 2)
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}
	logger := app.newLogger(cfg)
	paths := cfg.Paths.Resolved()

	set, err := readCatalogs(args)
	for _, f := range set.Files {
		if f.Err != nil {
			logger.Warn("catalog skipped", "file", f.Path, "err", f.Err)
		}
	}
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}

	res := stackability.Default().Classify(set.Unique)
	if len(res.Stackable) == 0 {
		return app.reportFailure(cmd, issue.NewErrorContext().
			WithOperation("generate recipes").
			WithSuggestion("Every item is a tool, armor piece or vehicle; add stackable items").
			Wrap(fmt.Errorf("all %d items are non-stackable", len(res.NonStackable))).
			Build(), 1)
	}

	tmplPath := opts.template
	if tmplPath == "" {
		tmplPath = paths.Template
	}
	renderer, err := recipe.NewSource(tmplPath, logger.WithPrefix("recipe")).Renderer()
	if err != nil {
		return app.reportFailure(cmd, issue.NewErrorContext().
			WithOperation("load recipe template").
			WithResource(tmplPath).
			WithSuggestion("Run 'dupetable init' to write the default template").
			Wrap(err).
			Build(), 1)
	}

	assembler, err := pack.NewAssembler(
		pack.WithLogger(logger.WithPrefix("pack")),
		pack.WithAssets(pack.Assets{PackIcon: paths.PackIcon, TextureDir: paths.TextureDir}),
	)
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}

	bundle, stats, err := assembler.Build(ctx, res.Stackable, format, renderer,
		pack.BuildOptions{TableRecipe: format == pack.FormatStandard})
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}

	out := opts.out
	if out == "" {
		out = fmt.Sprintf("minecraft_recipes_%s.zip", format)
	}
	if err := assembler.WriteArchive(ctx, bundle, out); err != nil {
		return app.reportFailure(cmd, issue.WrapWithContext(err, "write archive", out), 1)
	}
	info, err := os.Stat(out)
	if err != nil {
		return app.reportFailure(cmd, issue.WrapWithContext(err, "write archive", out), 1)
	}

	w := app.stdout
	fmt.Fprintf(w, "%s Wrote %d recipe file(s) to %s (%s bytes)\n",
		SuccessStyle.Render("✓"), stats.Rendered, CmdStyle.Render(out), humanize.Comma(info.Size()))
	if n := len(res.NonStackable); n > 0 {
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  %d non-stackable item(s) filtered out", n)))
	}
	for _, warning := range stats.Warnings {
		fmt.Fprintln(w, WarningStyle.Render("  ! "+warning))
	}

	if stats.Failed > 0 {
		return app.reportFailure(cmd, fmt.Errorf("%d item(s) failed to render", stats.Failed), 3)
	}
	return nil
}
