package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mehmetkoksal-w/archcheck/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	if err := cli.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			fmt.Fprintf(os.Stderr, "archcheck: %v\n", err)
		}
		os.Exit(1)
	}
}
