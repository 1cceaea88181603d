package cmd

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/oneconcern/docoverlay/pkg/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Compare locally owned files with the mirror",
	Long: `Compare the locally owned files under a path with the mirror.

Without path, every customized path is compared, or the whole published view in full mode.
Files are reported as modified (M) or local-only (A). Unchanged files are only reported as JSON.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		out := cmd.OutOrStdout()

		m, err := newManager()
		if err != nil {
			wrapFatalln("create workspace manager", err)
			return
		}

		var results []core.DiffResult
		if len(args) > 0 {
			d, err := m.Diff(ctx, args[0])
			if err != nil {
				wrapFatalln("diff "+args[0], err)
				return
			}
			results = []core.DiffResult{d}
		} else if results, err = m.DiffAll(ctx); err != nil {
			wrapFatalln("diff", err)
			return
		}

		if overlayFlags.diff.localOnly {
			for i := range results {
				results[i] = localOnly(results[i])
			}
		}

		if overlayFlags.output.json {
			b, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				wrapFatalln("encode diff", err)
				return
			}
			fmt.Fprintln(out, string(b))
			return
		}

		clean := true
		for _, d := range results {
			for _, e := range d.Entries {
				if e.Type == core.DiffEntryTypeUnchanged {
					continue
				}
				clean = false
				fmt.Fprintf(out, "%s %s\n", e.Type, e.Name)
				if !overlayFlags.diff.patch || e.Type != core.DiffEntryTypeModified {
					continue
				}
				patch, err := m.Patch(ctx, e.Name)
				if err != nil {
					wrapFatalln("diff "+e.Name, err)
					return
				}
				fmt.Fprint(out, patch)
			}
		}
		if clean {
			infoLogger.Println("no local changes")
		}
	},
}

func localOnly(d core.DiffResult) core.DiffResult {
	entries := make([]core.DiffEntry, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Type == core.DiffEntryTypeLocalOnly {
			entries = append(entries, e)
		}
	}
	d.Entries = entries
	return d
}

func init() {
	addLocalOnlyFlag(diffCmd)
	addPatchFlag(diffCmd)
	addJSONFlag(diffCmd)

	rootCmd.AddCommand(diffCmd)
}
