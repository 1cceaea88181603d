package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oneconcern/docoverlay/pkg/core"
)

var uncustomizeCmd = &cobra.Command{
	Use:   "uncustomize [path]",
	Short: "Give customized paths back to the mirror",
	Long: `Give a customized path back to the mirror: local copies are removed and mirror files are published again.

Every customized path equal to or nested under the given path is uncustomized. When some local files are modified,
or have no mirror counterpart, nothing is changed unless --force is set. Use --dry-run to list the files at risk.`,
	Example: `docoverlay uncustomize project --dry-run
docoverlay uncustomize --all --force`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		if overlayFlags.uncustomize.all == (len(args) > 0) {
			wrapFatalln("expected either a path or --all", nil)
			return
		}
		opts := core.UncustomizeOptions{
			DryRun: overlayFlags.uncustomize.dryRun,
			Force:  overlayFlags.uncustomize.force,
		}

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

		var res core.UncustomizeResult
		target := "all customized paths"
		if overlayFlags.uncustomize.all {
			res, err = m.UncustomizeAll(ctx, opts)
		} else {
			target = args[0]
			res, err = m.Uncustomize(ctx, target, opts)
		}
		printUncustomize(cmd.OutOrStdout(), res)
		if err != nil {
			wrapFatalln("uncustomize "+target, err)
			return
		}
	},
}

func printUncustomize(out io.Writer, res core.UncustomizeResult) {
	for _, e := range res.Entries {
		switch {
		case res.DryRun:
			for _, pth := range e.AtRisk() {
				fmt.Fprintf(out, "%s %s\n", markRemoved("would lose"), pth)
			}
			fmt.Fprintf(out, "%s: %d local file(s) would be removed\n", e.Path, len(e.Diff.Entries))
		case e.Error != "" || len(e.Removed) == 0 && len(e.AtRisk()) > 0:
			for _, pth := range e.AtRisk() {
				fmt.Fprintf(out, "%s %s\n", markWarning("at risk"), pth)
			}
			fmt.Fprintf(out, "%s %s\n", markConflict("not uncustomized"), e.Path)
		default:
			for _, pth := range e.Removed {
				fmt.Fprintf(out, "%s %s\n", markRemoved("removed"), pth)
			}
			fmt.Fprintf(out, "%s is published from the mirror\n", e.Path)
		}
	}
	if !res.DryRun && len(res.Entries) > 0 {
		printReport(out, res.Publish)
	}
}

func init() {
	addAllFlag(uncustomizeCmd)
	addDryRunFlag(uncustomizeCmd)
	addForceFlag(uncustomizeCmd)

	rootCmd.AddCommand(uncustomizeCmd)
}
