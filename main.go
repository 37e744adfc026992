package main

import (
	"os"

	"github.com/conneroisu/headsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
