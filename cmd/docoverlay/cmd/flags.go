package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oneconcern/docoverlay/pkg/dlogger"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

type flagsT struct {
	root struct {
		path     string
		logLevel string
		color    bool
		link     string
	}
	core struct {
		mode     string
		docsRepo string
		from     string
	}
	customize struct {
		tags []string
	}
	uncustomize struct {
		all    bool
		dryRun bool
		force  bool
	}
	diff struct {
		localOnly bool
		patch     bool
	}
	filters struct {
		include []string
		exclude []string
	}
	output struct {
		json bool
	}
	status struct {
		rebaseline bool
	}
	doc struct {
		target string
	}
}

var overlayFlags = flagsT{}

func addRootFlag(cmd *cobra.Command) string {
	root := "root"
	cmd.PersistentFlags().StringVar(&overlayFlags.root.path, root, "", "The root of the workspace. Defaults to the current directory")
	_ = viper.BindPFlag(root, cmd.PersistentFlags().Lookup(root))
	return root
}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&overlayFlags.root.logLevel, logLevel, dlogger.LogLevelWarn,
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	_ = viper.BindPFlag(logLevel, cmd.PersistentFlags().Lookup(logLevel))
	return logLevel
}

func addColorFlag(cmd *cobra.Command) string {
	c := "color"
	cmd.PersistentFlags().BoolVar(&overlayFlags.root.color, c, true, "Colorize the output when printing to a terminal")
	_ = viper.BindPFlag(c, cmd.PersistentFlags().Lookup(c))
	return c
}

func addLinkFlag(cmd *cobra.Command) string {
	link := "link"
	cmd.PersistentFlags().StringVar(&overlayFlags.root.link, link, overlay.AutoName,
		fmt.Sprintf("How mirror paths are published. One of: %s", strings.Join(overlay.StrategyNames, ", ")))
	_ = viper.BindPFlag(link, cmd.PersistentFlags().Lookup(link))
	return link
}

func addModeFlag(cmd *cobra.Command, defaultMode string) string {
	mode := "mode"
	cmd.Flags().StringVar(&overlayFlags.core.mode, mode, defaultMode,
		"How mirror paths are exposed by default. One of: mirror, project, full")
	return mode
}

func addDocsRepoFlag(cmd *cobra.Command) string {
	docsRepo := "docs-repo"
	cmd.Flags().StringVar(&overlayFlags.core.docsRepo, docsRepo, "", "The upstream documentation repository")
	return docsRepo
}

func addFromFlag(cmd *cobra.Command) string {
	from := "from"
	cmd.Flags().StringVar(&overlayFlags.core.from, from, "",
		"A local upstream directory to populate the mirror from. Defaults to the docs repo, when it is a local path")
	return from
}

func addTagFlag(cmd *cobra.Command) string {
	tag := "tag"
	cmd.Flags().StringSliceVar(&overlayFlags.customize.tags, tag, nil,
		"Customize every published mirror file with this tag. May be repeated")
	return tag
}

func addIncludeTagFlag(cmd *cobra.Command) string {
	include := "include-tag"
	cmd.Flags().StringSliceVar(&overlayFlags.filters.include, include, nil,
		"Only publish mirror files with one of these tags. An empty value clears the filter")
	return include
}

func addExcludeTagFlag(cmd *cobra.Command) string {
	exclude := "exclude-tag"
	cmd.Flags().StringSliceVar(&overlayFlags.filters.exclude, exclude, nil,
		"Hide mirror files with one of these tags. An empty value clears the filter")
	return exclude
}

func addAllFlag(cmd *cobra.Command) string {
	all := "all"
	cmd.Flags().BoolVar(&overlayFlags.uncustomize.all, all, false, "Uncustomize every customized path")
	return all
}

func addDryRunFlag(cmd *cobra.Command) string {
	dryRun := "dry-run"
	cmd.Flags().BoolVar(&overlayFlags.uncustomize.dryRun, dryRun, false, "Report the files which would be removed, without changing anything")
	return dryRun
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVar(&overlayFlags.uncustomize.force, force, false, "Discard modified and local-only files")
	return force
}

func addLocalOnlyFlag(cmd *cobra.Command) string {
	localOnly := "local-only"
	cmd.Flags().BoolVar(&overlayFlags.diff.localOnly, localOnly, false, "Only report files with no mirror counterpart")
	return localOnly
}

func addPatchFlag(cmd *cobra.Command) string {
	patch := "patch"
	cmd.Flags().BoolVar(&overlayFlags.diff.patch, patch, false, "Print a unified diff of modified files")
	return patch
}

func addJSONFlag(cmd *cobra.Command) string {
	j := "json"
	cmd.Flags().BoolVar(&overlayFlags.output.json, j, false, "Print the result as JSON")
	return j
}

func addRebaselineFlag(cmd *cobra.Command) string {
	rebaseline := "rebaseline"
	cmd.Flags().BoolVar(&overlayFlags.status.rebaseline, rebaseline, false,
		"Store the current published content as the new baseline")
	return rebaseline
}

func addTargetFlag(cmd *cobra.Command) string {
	c := "target-dir"
	cmd.Flags().StringVar(&overlayFlags.doc.target, c, ".", "The target directory where to generate the markdown documentation")
	return c
}
