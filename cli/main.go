package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"sorrymonster/cli/cmd"
	"sorrymonster/pkg/version"
)

func main() {
	version.ComponentName = "sorry"
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
