package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags of mirror files",
	Long:  "List the tags declared in the front-matter of mirror files, with the number of files carrying each tag.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		m, err := newManager()
		if err != nil {
			wrapFatalln("create workspace manager", err)
			return
		}
		counts, err := m.Tags(ctx)
		if err != nil {
			wrapFatalln("list tags", err)
			return
		}
		if len(counts) == 0 {
			infoLogger.Println("no tags")
			return
		}

		table := uitable.New()
		table.AddRow("TAG", "FILES")
		for _, c := range counts {
			table.AddRow(c.Tag, c.Files)
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
