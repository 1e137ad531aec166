package main

import (
	"os"

	"github.com/AI2HU/gosimon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
