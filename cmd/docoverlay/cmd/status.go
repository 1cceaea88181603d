package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/oneconcern/docoverlay/pkg/core"
	"github.com/oneconcern/docoverlay/pkg/core/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the workspace",
	Long: `Inspect the settings, the mirror and the published view of the workspace.

The command fails when the published content drifted from the last baseline, when customized files have
no local copy, or when mirror files are not published as expected. Use --rebaseline to accept the current
published content as the new baseline.`,
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

		if overlayFlags.status.rebaseline {
			unlock, err := lockWorkspace(m, false)
			if err != nil {
				wrapFatalln("lock workspace", err)
				return
			}
			state, err := m.Rebaseline(ctx)
			unlock()
			if err != nil {
				wrapFatalln("rebaseline", err)
				return
			}
			fmt.Fprintf(out, "baseline updated: %d published file(s)\n", len(state))
		}

		r, err := m.Status(ctx)
		if err != nil {
			wrapFatalln("status", err)
			return
		}

		if overlayFlags.output.json {
			b, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				wrapFatalln("encode status", err)
				return
			}
			fmt.Fprintln(out, string(b))
		} else {
			printStatus(out, r)
		}

		if !r.Healthy() {
			wrapFatalln("status", status.ErrDrift.WrapMessage("%d drifted, %d missing, %d unpublished",
				len(r.Drifted), len(r.Missing), len(r.Unpublished)))
			return
		}
	},
}

func printStatus(out io.Writer, r core.StatusReport) {
	format := r.Format
	if r.StoredFormat != r.Format {
		format = fmt.Sprintf("%s (stored as %s, upgraded on next change)", r.Format, r.StoredFormat)
	}
	mirrorDesc := "absent"
	if r.MirrorPresent {
		mirrorDesc = fmt.Sprintf("%d file(s), %s, version %s", r.Mirror.Files, units.HumanSize(float64(r.Mirror.Size)), shortVersion(r.Mirror.Version))
		if r.MirrorChanged {
			mirrorDesc += " " + markWarning("(changed since last sync)")
		}
	}

	table := uitable.New()
	table.MaxColWidth = 100
	table.Wrap = true
	table.AddRow("Root:", r.Root)
	table.AddRow("Format:", format)
	table.AddRow("Mode:", r.ModeName)
	table.AddRow("Docs repo:", r.DocsRepo)
	table.AddRow("Link strategy:", r.Strategy)
	table.AddRow("Last update:", orNone(r.LastUpdate))
	table.AddRow("CLI version:", orNone(r.LastCLIVersion))
	table.AddRow("Mirror:", mirrorDesc)
	table.AddRow("Customized:", orNone(strings.Join(r.Customized, ", ")))
	table.AddRow("Include tags:", orNone(strings.Join(r.Filters.IncludeTags, ", ")))
	table.AddRow("Exclude tags:", orNone(strings.Join(r.Filters.ExcludeTags, ", ")))
	table.AddRow("Published:", fmt.Sprintf("%d from mirror, %d owned, %d excluded, %d customizable",
		r.Mirrored, r.Owned, r.Excluded, r.Customizable))
	fmt.Fprintln(out, table)

	for _, w := range r.Warnings {
		fmt.Fprintf(out, "%s %s: %s\n", markWarning("warning"), w.Path, w.Message)
	}
	for _, pth := range r.Drifted {
		fmt.Fprintf(out, "%s %s\n", markWarning("drifted"), pth)
	}
	for _, pth := range r.Missing {
		fmt.Fprintf(out, "%s %s\n", markRemoved("missing"), pth)
	}
	for _, pth := range r.Unpublished {
		fmt.Fprintf(out, "%s %s\n", markWarning("unpublished"), pth)
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	addJSONFlag(statusCmd)
	addRebaselineFlag(statusCmd)

	rootCmd.AddCommand(statusCmd)
}
