// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oneconcern/docoverlay/pkg/dlogger"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docoverlay",
	Short: "docoverlay publishes shared documentation into a project, with local customizations",
	Long: `docoverlay keeps a read-only mirror of upstream documentation inside a workspace, and publishes it
under docs/ as links (or copies, when links are not supported).

Any path may be customized: it is then published as a locally owned copy, which upstream updates never overwrite.
Paths may also be selected or hidden by the tags declared in their front-matter.

Workspace settings are kept in .docoverlay/settings.yml. Settings written by older versions are upgraded
on the fly, and persisted by the next command changing the workspace.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !config.Color {
			color.NoColor = true
		}
	},
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(exitGeneric)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addRootFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addColorFlag(rootCmd)
	addLinkFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("loglevel", dlogger.LogLevelWarn)
	viper.SetDefault("color", true)
	viper.SetDefault("link", overlay.AutoName)
	if os.Getenv("DOCOVERLAY_CONFIG") != "" {
		// Use config file from the env.
		viper.SetConfigFile(os.Getenv("DOCOVERLAY_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.docoverlay")
		viper.SetConfigName("docoverlay")
	}

	viper.SetEnvPrefix("docoverlay")
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		wrapFatalln("invalid configuration", err)
	}
}
