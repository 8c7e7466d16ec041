// Command hamlet converts test source files between xUnit class-based
// and FixtureDSL function-based dialects.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/hamlet/cmd/hamlet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
