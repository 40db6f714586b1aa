// Command rxflow runs the reactive error-handling scenario catalog.
package main

import (
	"os"

	"github.com/vnykmshr/rxflow/cmd/rxflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
