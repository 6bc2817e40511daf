package main

import (
	"os"

	"github.com/build-flow-labs/atlas/internal/atlas/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
