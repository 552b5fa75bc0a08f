package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lift/internal/diag"
	"lift/internal/diagfmt"
	"lift/internal/lambda"
	"lift/internal/source"
	"lift/internal/unit"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes [flags] <unit.yaml>",
	Short: "Print the scope tree and captures of each method",
	Long: `Run capture analysis only and print, per method, the scopes with the
variables they declare, the closures with what they capture, and which
variables must be lifted into frames`,
	Args: cobra.ExactArgs(1),
	RunE: runScopes,
}

func init() {
	scopesCmd.Flags().StringSlice("scope-kinds", []string{"all"}, "nodes that open a scope (block|catch|switch|sequence|all)")
	scopesCmd.Flags().StringSlice("only", nil, "analyze only these qualified methods")
}

func runScopes(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	path := args[0]

	opts, _, err := loweringOptions(cmd, path)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	bag := diag.NewBag(opts.MaxDiagnostics)
	u, err := unit.Load(fs, path, diag.BagReporter{Bag: bag})
	if err != nil && !errors.Is(err, unit.ErrNoMethods) {
		return err
	}

	out := cmd.OutOrStdout()
	if u != nil {
		for _, m := range u.Methods {
			name := u.Table.Qualified(m.Sym)
			if !selectedMethod(opts.Only, name) {
				continue
			}
			fmt.Fprintf(out, "// %s\n", name)
			if m.Broken {
				fmt.Fprintln(out, "(not analyzed, the body did not bind)")
				continue
			}
			an := lambda.Analyze(u.Table, m.Input(u.Table), opts.ScopeKinds)
			if err := an.Dump(out); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
	}

	bag.Sort()
	useColor, err := colorEnabled(cmd, os.Stderr)
	if err != nil {
		return err
	}
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: useColor, ShowNotes: true})
	if bag.HasErrors() {
		return fmt.Errorf("%s: binding failed", path)
	}
	return nil
}

func selectedMethod(only []string, name string) bool {
	if len(only) == 0 {
		return true
	}
	for _, n := range only {
		if n == name {
			return true
		}
	}
	return false
}
