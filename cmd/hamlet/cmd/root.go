package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "hamlet",
	Short: "Bidirectional xUnit <-> FixtureDSL test-dialect transpiler",
	Long: `hamlet rewrites test source files between two dialects of the same
host language: xUnit class-based tests (unittest.TestCase subclasses,
assertEqual-style methods) and FixtureDSL function-based tests (free
test_ functions, @fixture-decorated dependency injection, bare assert
statements).

Conversion is structural and best-effort: constructs with no equivalent
in the target dialect are left in place with a HAMLET-TODO comment
explaining what a human needs to do instead, rather than failing the
whole file.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
