// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"
	"os/signal"
)

// commandContext is canceled on SIGINT, so that long operations such as a mirror refresh stop
// and leave the workspace untouched
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
