package cmd

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the mirror from upstream",
	Long: `Refresh the mirror from an upstream directory, then publish it again.

The mirror is replaced only once the new content is complete. Customized files which have no local copy yet
are copied: existing local copies are never overwritten. The published content becomes the new baseline.

Remote docs repositories are fetched by an external tool: point --from at the fetched directory.`,
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
		res, err := m.Sync(ctx, overlayFlags.core.from)
		if res.Source != "" {
			printSync(cmd.OutOrStdout(), res)
		}
		if err != nil {
			wrapFatalln("sync", err)
			return
		}
	},
}

func init() {
	addFromFlag(syncCmd)

	rootCmd.AddCommand(syncCmd)
}
