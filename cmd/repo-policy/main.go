package main

import (
	"os"

	"repopolicy/internal/cli"
	_ "repopolicy/internal/rules/checks"
)

// Set by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	os.Exit(cli.Execute())
}
