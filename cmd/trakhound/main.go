// Command trakhound reads, publishes and queries TrakHound entities.
package main

import (
	"os"

	"github.com/trakhound/trakhound-core/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
