package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Evaluate a facet script",
	Long:  "Evaluate a script and print the operator log, or the tessellated preview buffers with --json.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the full result as JSON")
}

func runScript(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	app, log, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	result := app.Evaluate(string(source))
	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		printResult(out, result)
	}
	if n := len(result.Errors); n > 0 {
		return fmt.Errorf("%s: %d error(s)", args[0], n)
	}
	return nil
}

func printResult(w io.Writer, r EvalResult) {
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, l := range r.Log {
		fmt.Fprintln(w, l)
	}
	for _, wr := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", wr.Message)
	}
	if len(r.Errors) == 0 {
		fmt.Fprintf(w, "%d material(s), %d vertices, %d triangles\n",
			r.Stats.Meshes, r.Stats.Vertices, r.Stats.Triangles)
	}
}
