// Command promethean is the Promethean Light knowledge base.
package main

import (
	"os"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
