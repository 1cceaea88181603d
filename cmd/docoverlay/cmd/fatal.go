package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/oneconcern/docoverlay/pkg/errors"

	corestatus "github.com/oneconcern/docoverlay/pkg/core/status"
	settingsstatus "github.com/oneconcern/docoverlay/pkg/settings/status"
)

// exit codes
const (
	exitOK = iota
	exitGeneric
	exitSettings
	exitNothing
	exitDestructive
	exitConflict
)

var (
	// globals used to patch over calls to os.Exit() during test
	osExit = os.Exit

	// infoLogger wraps informative messages to os.Stderr without cluttering expected output.
	infoLogger = log.New(os.Stderr, "", 0)
)

// exitCode maps an error to the exit code of the command
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, settingsstatus.ErrSettingsCorrupt), errors.Is(err, settingsstatus.ErrFormatUnknown):
		return exitSettings
	case errors.Is(err, corestatus.ErrDestructiveLoss):
		return exitDestructive
	case errors.Is(err, corestatus.ErrNothingToCustomize), errors.Is(err, corestatus.ErrPathNotCustomized):
		return exitNothing
	case errors.Is(err, corestatus.ErrPublishConflict):
		return exitConflict
	default:
		return exitGeneric
	}
}

func wrapFatalln(msg string, err error) {
	if err == nil {
		wrapFatalWithCodef(exitGeneric, "%s", msg)
		return
	}
	wrapFatalWithCodef(exitCode(err), "%s", fatalMessage(msg, err))
}

func fatalMessage(msg string, err error) string {
	return fmt.Errorf("%s: %w", msg, err).Error()
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}
