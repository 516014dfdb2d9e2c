package main

import (
	"os"

	"github.com/centy-io/centy-installer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
