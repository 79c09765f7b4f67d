package main

import (
	"os"

	"github.com/on-the-ground/composable_go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
