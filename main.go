package main

import (
	"os"

	"github.com/shelftrack/shelftrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
