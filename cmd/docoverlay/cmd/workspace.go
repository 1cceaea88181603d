package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/nightlyone/lockfile"
	"github.com/spf13/afero"

	"github.com/oneconcern/docoverlay/pkg/core"
	"github.com/oneconcern/docoverlay/pkg/dlogger"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

var (
	markAdded    = color.New(color.FgGreen).SprintFunc()
	markRemoved  = color.New(color.FgRed).SprintFunc()
	markKept     = color.New(color.FgCyan).SprintFunc()
	markWarning  = color.New(color.FgYellow).SprintFunc()
	markConflict = color.New(color.FgRed, color.Bold).SprintFunc()
)

// newManager builds the workspace manager from the CLI configuration
func newManager() (*core.Manager, error) {
	logger, err := dlogger.GetLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}

	root := config.Root
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	if root, err = filepath.Abs(root); err != nil {
		return nil, err
	}

	return core.New(afero.NewOsFs(), root,
		core.Logger(logger),
		core.LinkStrategy(config.Link),
		core.Version(NewVersionInfo().Version),
	), nil
}

const lockFile = "lock"

// lockWorkspace prevents concurrent changes to the same workspace. The state directory is
// created when create is set: otherwise, a workspace without state directory is not locked.
func lockWorkspace(m *core.Manager, create bool) (func(), error) {
	dir := m.Layout().StateDir()
	if create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(dir); os.IsNotExist(err) {
		return func() {}, nil
	}

	lock, err := lockfile.New(filepath.Join(dir, lockFile))
	if err != nil {
		return nil, err
	}
	if err = lock.TryLock(); err != nil {
		return nil, fmt.Errorf("another command is changing the workspace at %s: %w", m.Layout().Root, err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			infoLogger.Printf("failed to release the workspace lock: %v", err)
		}
	}, nil
}

// printReport summarizes the effects of a publication
func printReport(out io.Writer, report overlay.Report) {
	counts := []string{
		fmt.Sprintf("%d created", len(report.Created)),
		fmt.Sprintf("%d updated", len(report.Updated)),
		fmt.Sprintf("%d replaced", len(report.Replaced)),
		fmt.Sprintf("%d removed", len(report.Removed)),
		fmt.Sprintf("%d released", len(report.Released)),
		fmt.Sprintf("%d unchanged", report.Unchanged),
	}
	fmt.Fprintf(out, "published (%s): %s\n", report.Strategy, strings.Join(counts, ", "))

	for _, pth := range report.Kept {
		fmt.Fprintf(out, "%s %s: local file kept\n", markKept("kept"), pth)
	}
	for _, pth := range report.Missing {
		fmt.Fprintf(out, "%s %s: customized, but no local copy\n", markWarning("missing"), pth)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "%s %s: %s\n", markWarning("warning"), w.Path, w.Message)
	}
	for _, pth := range report.Conflicts {
		fmt.Fprintf(out, "%s %s: a local file stands in the way of the mirror\n", markConflict("conflict"), pth)
	}
}

func printSync(out io.Writer, res core.SyncResult) {
	fmt.Fprintf(out, "mirror synced from %s: %d file(s), version %s\n", res.Source, res.Files, shortVersion(res.Mirror.Version))
	for _, pth := range res.Copied {
		fmt.Fprintf(out, "%s %s\n", markAdded("copied"), pth)
	}
	printReport(out, res.Publish)
}

func shortVersion(v string) string {
	const short = 12
	if len(v) > short {
		return v[:short]
	}
	return v
}
