package main

import (
	"os"

	"github.com/flowsight-systems/flowsight-stack/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
