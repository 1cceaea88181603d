// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

const bash = "bash"
const zsh = "zsh"

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion SHELL",
	Short: "generate completions for the docoverlay command",
	Long: `Generate completions for your shell

	For bash add the following line to your ~/.bashrc

		eval "$(docoverlay completion bash)"

	For zsh add generate a file:

		docoverlay completion zsh > /usr/local/share/zsh/site-functions/_docoverlay

	`,
	ValidArgs: []string{bash, zsh},
	Args:      cobra.OnlyValidArgs,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			wrapFatalln("specify a shell to generate completions for bash or zsh", nil)
			return
		}
		out := cmd.OutOrStdout()
		switch args[0] {
		case bash:
			if err := rootCmd.GenBashCompletion(out); err != nil {
				wrapFatalln("failed to generate bash completion", err)
				return
			}
		case zsh:
			if err := rootCmd.GenZshCompletion(out); err != nil {
				wrapFatalln("failed to generate zsh completion", err)
				return
			}
		}
	},
}

func init() {
	completionCmd.Hidden = true
	rootCmd.AddCommand(completionCmd)
}
