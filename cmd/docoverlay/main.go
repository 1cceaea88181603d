// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/docoverlay/cmd/docoverlay/cmd"
)

func main() {
	cmd.Execute()
}
