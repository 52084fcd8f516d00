package main

import (
	"os"

	"brisk/internal/cli"
	"brisk/internal/config"
)

var (
	// Version, BuildDate and Commit are set via LDFLAGS at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

func main() {
	conf := config.Configuration{
		Version:   Version,
		BuildDate: BuildDate,
		Commit:    Commit,
	}
	os.Exit(cli.Execute(conf, os.Args[1:], os.Stderr))
}
