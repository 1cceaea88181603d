package cmd

import (
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the mirror according to the settings",
	Long: `Recompute the published view from the settings and the mirror, and repair it.

Publishing again is harmless: only the paths which differ from the expected view are changed.`,
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
		report, err := m.Publish(ctx)
		printReport(cmd.OutOrStdout(), report)
		if err != nil {
			wrapFatalln("publish", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
