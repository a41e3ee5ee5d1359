// Command patreg is the entry point for the registry ingestion and
// statistics toolset: file loads, aggregate queries and the HTTP API server.
package main

import (
	"os"

	"github.com/turtacn/patreg-insight/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
