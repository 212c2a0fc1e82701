package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands print through these so icons and indentation stay consistent.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   -  not found / missing
//   ~  neutral info

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// printSection prints a top-level section header, e.g. "=== talkrec doctor ===".
func printSection(title string) {
	fmt.Fprintf(stdout, "\n=== %s ===\n", title)
}

// printGroup prints a check group label, e.g. "[ artifacts ]".
func printGroup(title string) {
	fmt.Fprintf(stdout, "\n[ %s ]\n", title)
}

func printLine(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//
//	name = "" → "  ✓  msg"
//	name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine(stdout, "✓", name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) { printLine(stderr, "✗", name, msg) }

func printWarn(name, msg string) { printLine(stdout, "⚠", name, msg) }

func printMiss(name, msg string) { printLine(stdout, "-", name, msg) }

func printInfo(name, msg string) { printLine(stdout, "~", name, msg) }

// printJSON writes v as indented JSON for --json output.
func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
