package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oneconcern/docoverlay/pkg/core"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/settings"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Root     string `json:"root" yaml:"root"`         // Root of the workspace
	LogLevel string `json:"loglevel" yaml:"loglevel"` // Logging level
	Color    bool   `json:"color" yaml:"color"`       // Colorized output
	Link     string `json:"link" yaml:"link"`         // Link strategy
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// configChange collects the settings changed on the command line
func configChange(cmd *cobra.Command) (core.ConfigChange, error) {
	var change core.ConfigChange
	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := model.ParseMode(overlayFlags.core.mode)
		if err != nil {
			return change, err
		}
		change.Mode = &mode
	}
	if flags.Changed("docs-repo") {
		repo := overlayFlags.core.docsRepo
		change.DocsRepo = &repo
	}
	if flags.Changed("include-tag") {
		change.IncludeTags = append([]string{}, overlayFlags.filters.include...)
	}
	if flags.Changed("exclude-tag") {
		change.ExcludeTags = append([]string{}, overlayFlags.filters.exclude...)
	}
	return change, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the settings of the workspace",
	Long: `Show or change the settings of the workspace.

Without flags, the settings are printed as YAML. Any change is published right away.

Entering the full mode copies every published mirror file locally. Leaving the full mode publishes
unmodified copies from the mirror again, and keeps modified copies as customized paths.
Tag filters hide mirror files from the published view: the mirror keeps them.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		out := cmd.OutOrStdout()

		m, err := newManager()
		if err != nil {
			wrapFatalln("create workspace manager", err)
			return
		}
		change, err := configChange(cmd)
		if err != nil {
			wrapFatalln("invalid settings", err)
			return
		}

		if change.IsEmpty() {
			s, err := m.Settings()
			if err != nil {
				wrapFatalln("load settings", err)
				return
			}
			b, err := settings.Encode(s).Marshal()
			if err != nil {
				wrapFatalln("encode settings", err)
				return
			}
			fmt.Fprint(out, string(b))
			return
		}

		unlock, err := lockWorkspace(m, false)
		if err != nil {
			wrapFatalln("lock workspace", err)
			return
		}
		defer unlock()

		res, err := m.Configure(ctx, change)
		if len(res.Copied) > 0 {
			fmt.Fprintf(out, "copied %d file(s) from the mirror\n", len(res.Copied))
		}
		for _, kept := range res.Kept {
			fmt.Fprintf(out, "%s %s\n", markKept("kept"), kept)
		}
		printReport(out, res.Publish)
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		fmt.Fprintf(out, "settings updated (mode %s)\n", res.Settings.Mode)
	},
}

func init() {
	addModeFlag(configCmd, model.ModeMirror.String())
	addDocsRepoFlag(configCmd)
	addIncludeTagFlag(configCmd)
	addExcludeTagFlag(configCmd)

	rootCmd.AddCommand(configCmd)
}
