package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/hamlet/internal/config"
	"github.com/cwbudde/hamlet/internal/diagnostics"
	"github.com/cwbudde/hamlet/pkg/hamlet"
)

var (
	convertDirection      string // --direction: xunit-to-fixture | fixture-to-xunit
	convertWrite          bool   // -w: write result to (source) file instead of stdout
	convertDiff           bool   // -d: display diffs instead of rewriting files
	convertList           bool   // -l: list files the conversion would change
	convertRecursive      bool   // -r: process directories recursively
	convertCheck          bool   // --check: exit non-zero if conversion would change the file
	convertDiagnosticJSON bool   // --diagnostics-json: emit diagnostics as a JSON array
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or directories...]",
	Short: "Convert test files between xUnit and FixtureDSL dialects",
	Long: `convert rewrites test source files from one dialect to the other.

Usage:
  hamlet convert --direction xunit-to-fixture file.py   # to stdout
  hamlet convert --direction fixture-to-xunit -w file.py
  hamlet convert --direction xunit-to-fixture -l -r tests/
  hamlet convert --direction xunit-to-fixture -d file.py
  hamlet convert --direction xunit-to-fixture --check file.py

By default convert writes the rewritten source to standard output. If no
path is given, it reads from standard input.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertDirection, "direction", "", "xunit-to-fixture or fixture-to-xunit (required)")
	convertCmd.Flags().BoolVarP(&convertWrite, "write", "w", false, "write result to (source) file instead of stdout")
	convertCmd.Flags().BoolVarP(&convertDiff, "diff", "d", false, "display diffs instead of rewriting files")
	convertCmd.Flags().BoolVarP(&convertList, "list", "l", false, "list files the conversion would change")
	convertCmd.Flags().BoolVarP(&convertRecursive, "recursive", "r", false, "process directories recursively")
	convertCmd.Flags().BoolVar(&convertCheck, "check", false, "exit non-zero if conversion would change the file, without writing it")
	convertCmd.Flags().BoolVar(&convertDiagnosticJSON, "diagnostics-json", false, "emit diagnostics as a JSON array instead of the formatted report")
	convertCmd.MarkFlagRequired("direction")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertWrite && convertList {
		return fmt.Errorf("cannot use -w and -l together")
	}
	if convertWrite && convertDiff {
		return fmt.Errorf("cannot use -w and -d together")
	}
	if convertWrite && convertCheck {
		return fmt.Errorf("cannot use -w and --check together")
	}

	dir, err := parseDirection(convertDirection)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	opts := cfg.Options()

	if len(args) == 0 {
		return convertStdin(dir, opts)
	}

	changedAny := false
	hasErrors := false
	for _, path := range args {
		changed, err := processPath(path, dir, opts, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", path, err)
			hasErrors = true
			continue
		}
		changedAny = changedAny || changed
	}

	if hasErrors {
		return fmt.Errorf("conversion failed for one or more files")
	}
	if convertCheck && changedAny {
		return fmt.Errorf("one or more files would be changed by conversion")
	}
	return nil
}

func parseDirection(s string) (hamlet.Direction, error) {
	switch s {
	case "xunit-to-fixture":
		return hamlet.XUnitToFixture, nil
	case "fixture-to-xunit":
		return hamlet.FixtureToXUnit, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (use xunit-to-fixture or fixture-to-xunit)", s)
	}
}

func processPath(path string, dir hamlet.Direction, opts hamlet.Options, cfg *config.Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		if convertRecursive {
			return processDirectory(path, dir, opts, cfg)
		}
		return false, fmt.Errorf("%s is a directory (use -r to process recursively)", path)
	}

	return convertFile(path, dir, opts)
}

func processDirectory(root string, dir hamlet.Direction, opts hamlet.Options, cfg *config.Config) (bool, error) {
	changedAny := false
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".py") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && cfg.Excluded(rel) {
			return nil
		}
		changed, err := convertFile(path, dir, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting %s: %v\n", path, err)
			return nil
		}
		changedAny = changedAny || changed
		return nil
	})
	return changedAny, err
}

func convertStdin(dir hamlet.Direction, opts hamlet.Options) error {
	src, err := readAllStdin()
	if err != nil {
		return fmt.Errorf("error reading stdin: %w", err)
	}

	res, err := hamlet.Convert(src, dir, opts, "<stdin>")
	if err != nil {
		return err
	}

	emitDiagnostics(res.Diagnostics)
	fmt.Print(string(res.Output))
	return nil
}

func convertFile(filename string, dir hamlet.Direction, opts hamlet.Options) (bool, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Errorf("error reading file: %w", err)
	}

	res, err := hamlet.Convert(src, dir, opts, filename)
	if err != nil {
		return false, err
	}

	changed := !bytes.Equal(src, res.Output)

	switch {
	case convertList, convertCheck:
		if changed {
			fmt.Println(filename)
		}

	case convertDiff:
		if changed {
			fmt.Printf("--- %s (original)\n", filename)
			fmt.Printf("+++ %s (converted)\n", filename)
			showDiff(string(src), string(res.Output))
		}

	case convertWrite:
		if changed {
			if err := os.WriteFile(filename, res.Output, 0644); err != nil {
				return changed, fmt.Errorf("error writing file: %w", err)
			}
			if verbose {
				fmt.Printf("Converted %s\n", filename)
			}
		}

	default:
		fmt.Print(string(res.Output))
	}

	emitDiagnostics(res.Diagnostics)
	return changed, nil
}

func readAllStdin() ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(os.Stdin)
	return buf.Bytes(), err
}

// emitDiagnostics writes every soft diagnostic to stderr, either as a
// human-readable formatted report (default) or, with --diagnostics-json,
// as a pretty-printed JSON array built incrementally with sjson rather
// than a full struct-marshal round trip.
func emitDiagnostics(diags []*diagnostics.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	if !convertDiagnosticJSON {
		fmt.Fprint(os.Stderr, diagnostics.FormatAll(diags, false))
		return
	}

	payload := "[]"
	for i, d := range diags {
		prefix := fmt.Sprintf("%d.", i)
		var err error
		payload, err = sjson.Set(payload, prefix+"category", string(d.Category))
		if err != nil {
			continue
		}
		payload, _ = sjson.Set(payload, prefix+"node_span.start.line", d.Span.Start.Line)
		payload, _ = sjson.Set(payload, prefix+"node_span.start.column", d.Span.Start.Column)
		payload, _ = sjson.Set(payload, prefix+"node_span.end.line", d.Span.End.Line)
		payload, _ = sjson.Set(payload, prefix+"node_span.end.column", d.Span.End.Column)
		payload, _ = sjson.Set(payload, prefix+"message", d.Message)
	}
	if !gjson.Valid(payload) {
		payload = "[]"
	}
	fmt.Fprintln(os.Stderr, string(pretty.Pretty([]byte(payload))))
}

// showDiff shows a simple line-by-line diff.
func showDiff(original, converted string) {
	origLines := strings.Split(original, "\n")
	newLines := strings.Split(converted, "\n")

	maxLines := len(origLines)
	if len(newLines) > maxLines {
		maxLines = len(newLines)
	}

	for i := 0; i < maxLines; i++ {
		var origLine, newLine string
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(newLines) {
			newLine = newLines[i]
		}
		if origLine != newLine {
			if origLine != "" {
				fmt.Printf("- %s\n", origLine)
			}
			if newLine != "" {
				fmt.Printf("+ %s\n", newLine)
			}
		}
	}
}
