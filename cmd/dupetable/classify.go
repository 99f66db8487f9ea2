// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/stackability"
)

type classifyOptions struct {
	preview int
	list    bool
}

func newClassifyCommand(app *App) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify <catalog files...>",
		Short: "Report which catalog items can be duplicated",
		Long: `Parse the catalog files and split their items into stackable ones, which
get a recipe, and non-stackable ones (tools, armor, vehicles and similar),
which are filtered out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, app, opts, args)
		},
	}
	cmd.Flags().IntVar(&opts.preview, "preview", 20, "number of filtered items to show")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list every stackable item")
	return cmd
}

func runClassify(cmd *cobra.Command, app *App, opts *classifyOptions, args []string) error {
	set, err := readCatalogs(args)
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Catalog files"))
	for _, f := range set.Files {
		if f.Err != nil {
			fmt.Fprintf(w, "  %s %s %s\n", ErrorStyle.Render("✗"), f.Path, SubtitleStyle.Render("("+f.Err.Error()+")"))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", SuccessStyle.Render("✓"), f.Path, SubtitleStyle.Render(fmt.Sprintf("(%d items)", len(f.Items))))
	}
	if err != nil {
		return app.reportFailure(cmd, err, 1)
	}

	table := stackability.Default()
	res := table.Classify(set.Unique)

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Summary"))
	row := func(k, v string) { fmt.Fprintln(w, "  "+keyStyle.Render(k)+v) }
	row("Total items", strconv.Itoa(set.Total))
	row("Unique items", strconv.Itoa(len(set.Unique)))
	row("Stackable", SuccessStyle.Render(strconv.Itoa(len(res.Stackable))))
	row("Non-stackable", WarningStyle.Render(strconv.Itoa(len(res.NonStackable))))
	row("Filter table", table.Version())

	if opts.list && len(res.Stackable) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Stackable items"))
		for _, id := range res.Stackable {
			fmt.Fprintln(w, "  "+CmdStyle.Render(id.String()))
		}
	}

	if n := len(res.NonStackable); n > 0 && opts.preview > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Filtered out"))
		for _, id := range res.NonStackable[:min(n, opts.preview)] {
			category, _ := table.CategoryOf(id.String())
			fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(id.String()), SubtitleStyle.Render("("+category+")"))
		}
		if rest := n - opts.preview; rest > 0 {
			fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  ... and %d more", rest)))
		}
	}
	return nil
}
