// Package main is the entrypoint for the storefront CLI.
package main

import (
	"os"

	"github.com/storefront-labs/storefront/internal/cli"
)

// Set at build time with -ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
