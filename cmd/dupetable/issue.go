// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dupetable/dupetable/internal/issue"
)

func newIssueCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "issue [name]",
		Short: "Explain a common problem and how to fix it",
		Long: `Render an entry of the troubleshooting catalog as markdown.
Without a name, list the available entries.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, is := range issue.Values() {
				names = append(names, is.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Known issues"))
				for _, is := range issue.Values() {
					fmt.Fprintln(app.stdout, "  "+CmdStyle.Render(is.Name()))
				}
				return nil
			}

			is := issue.Lookup(args[0])
			if is == nil {
				return app.reportFailure(cmd, issue.NewErrorContext().
					WithOperation("find issue").
					WithResource(args[0]).
					WithSuggestion("Run 'dupetable issue' to list the known issues").
					Build(), 1)
			}
			rendered, err := is.Render(style)
			if err != nil {
				return app.reportFailure(cmd, err, 1)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ascii)")
	return cmd
}
