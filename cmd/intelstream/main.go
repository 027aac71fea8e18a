package main

import (
	"os"

	"github.com/crosswire-labs/intelstream/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
