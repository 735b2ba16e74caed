// Command diagramctl parses, formats and synchronizes narrative diagrams.
package main

import (
	"os"

	"github.com/Cloutiere/mermaid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
