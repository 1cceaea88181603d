package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneconcern/docoverlay/pkg/core"
)

var customizeCmd = &cobra.Command{
	Use:   "customize [path]",
	Short: "Take ownership of mirror paths",
	Long: `Take ownership of a mirror path, or of every published mirror file with some tag.

Customized files are copied locally and are never overwritten by the mirror. Local files already present
are kept as they are. In project mode, the project subtree is customized when no path is given.`,
	Example: `docoverlay customize general/style.md
docoverlay customize --tag python`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		out := cmd.OutOrStdout()
		sel := core.Selector{Tags: overlayFlags.customize.tags}
		if len(args) > 0 {
			sel.Path = args[0]
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
		res, err := m.Customize(ctx, sel)
		for _, pth := range res.AlreadyCustomized {
			fmt.Fprintf(out, "%s is already customized\n", pth)
		}
		for _, pth := range res.Added {
			fmt.Fprintf(out, "%s %s\n", markAdded("customized"), pth)
		}
		for _, pth := range res.Kept {
			fmt.Fprintf(out, "%s %s: local file kept\n", markKept("kept"), pth)
		}
		if len(res.Copied) > 0 {
			fmt.Fprintf(out, "copied %d file(s) from the mirror\n", len(res.Copied))
		}
		if err != nil {
			wrapFatalln("customize "+sel.String(), err)
			return
		}
	},
}

func init() {
	addTagFlag(customizeCmd)

	rootCmd.AddCommand(customizeCmd)
}
