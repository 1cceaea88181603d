package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unpublishCmd = &cobra.Command{
	Use:   "unpublish",
	Short: "Retract every mirror publication",
	Long: `Remove every link or managed copy of the mirror from the published view.

Locally owned files are kept, including published copies modified since they were published.
The settings and the mirror are left unchanged: run publish to restore the view.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		m, err := newManager()
		if err != nil {
			wrapFatalln("create workspace manager", err)
			return
		}
		unlock, err := lockWorkspace(m, false)
		if err != nil {
			wrapFatalln("lock workspace", err)
			return
		}
		defer unlock()

		report, err := m.Unpublish(ctx)
		out := cmd.OutOrStdout()
		for _, pth := range report.Removed {
			fmt.Fprintf(out, "%s %s\n", markRemoved("removed"), pth)
		}
		for _, pth := range report.Kept {
			fmt.Fprintf(out, "%s %s: modified since it was published\n", markKept("kept"), pth)
		}
		fmt.Fprintf(out, "unpublished (%s): %d removed, %d kept\n", report.Strategy, len(report.Removed), len(report.Kept))
		if err != nil {
			wrapFatalln("unpublish", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(unpublishCmd)
}
