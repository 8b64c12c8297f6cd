// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/anvil-build/anvil/internal/issue"

	"github.com/spf13/cobra"
)

// newExplainCommand creates the `anvil explain` command.
// Every code that appears on validation findings and error output is
// documented; explain expands one into its full markdown write-up.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain a documented issue code",
		Long: `Explain a documented issue code.

Validation findings and error output carry stable codes such as
duplicate-project or missing-source-dir. This command expands a code into
its full explanation: what the finding means, why it matters, and what to
do about it.

Without an argument, all documented codes are listed.

Examples:
  anvil explain                     List documented codes
  anvil explain duplicate-project   Explain one code`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listIssueCodes(cmd)
			}
			return explainIssueCode(cmd, app, args[0])
		},
	}
}

// listIssueCodes prints every documented code, sorted, one per line.
func listIssueCodes(cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()

	fmt.Fprintln(stdout, headingStyle.Render("Documented Codes"))
	for _, iss := range issue.Values() {
		fmt.Fprintf(stdout, "  %s %s\n", infoIcon, CmdStyle.Render(string(iss.Code())))
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, hintStyle.Render("Run 'anvil explain <code>' to expand one."))

	return nil
}

// explainIssueCode renders one code's markdown explanation via glamour.
func explainIssueCode(cmd *cobra.Command, app *App, code string) error {
	iss := issue.Get(issue.Code(code))
	if iss == nil {
		return fmt.Errorf("unknown code %q; run 'anvil explain' to list documented codes", code)
	}

	cfg, diags := app.loadConfig(cmd.Context())
	app.Diagnostics.Render(cmd.Context(), diags, cmd.ErrOrStderr())

	rendered, err := iss.Render(issueStyle(cfg))
	if err != nil {
		// Glamour needs a usable terminal profile; fall back to the raw
		// markdown rather than failing an informational command.
		fmt.Fprintln(cmd.OutOrStdout(), string(iss.MarkdownMsg()))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
