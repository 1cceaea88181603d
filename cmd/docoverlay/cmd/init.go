package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneconcern/docoverlay/pkg/core"
	"github.com/oneconcern/docoverlay/pkg/model"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a workspace",
	Long: `Initialize a workspace with default settings.

Existing settings are never overwritten: running init again only reports the current settings.
With --from, the mirror is populated from a local upstream directory and published right away.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		out := cmd.OutOrStdout()

		mode, err := model.ParseMode(overlayFlags.core.mode)
		if err != nil {
			wrapFatalln("invalid mode", err)
			return
		}
		m, err := newManager()
		if err != nil {
			wrapFatalln("create workspace manager", err)
			return
		}
		unlock, err := lockWorkspace(m, true)
		if err != nil {
			wrapFatalln("lock workspace", err)
			return
		}
		defer unlock()

		res, err := m.Init(ctx, core.InitOptions{
			Mode:     mode,
			DocsRepo: overlayFlags.core.docsRepo,
			From:     overlayFlags.core.from,
		})
		if res.AlreadyInitialized {
			fmt.Fprintf(out, "workspace already initialized at %s (format %s, mode %s)\n",
				m.Layout().Root, res.Settings.Format, res.Settings.Mode)
		} else if res.Settings.Format != "" {
			fmt.Fprintf(out, "initialized workspace at %s (mode %s)\n", m.Layout().Root, res.Settings.Mode)
		}
		if res.Sync != nil && res.Sync.Source != "" {
			printSync(out, *res.Sync)
		}
		if err != nil {
			wrapFatalln("init", err)
			return
		}
	},
}

func init() {
	addModeFlag(initCmd, model.ModeMirror.String())
	addDocsRepoFlag(initCmd)
	addFromFlag(initCmd)

	rootCmd.AddCommand(initCmd)
}
