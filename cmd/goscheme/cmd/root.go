package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deanmchris/Schemey/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"

	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "goscheme",
	Short: "A toolchain for a small subset of Scheme",
	Long: `goscheme reads, compiles, disassembles and runs programs written in a
small subset of Scheme: definitions, lambda, if, cond, let, begin, quote
and procedure calls, lowered to a stack-machine bytecode with a bit-exact
on-disk container format.

Run with no subcommand to enter the REPL.`,
	Version:      Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print compiler/VM diagnostics to stderr")
	cobra.OnInitialize(loadConfig)
}

func loadConfig() {
	path := ".goscheme.yaml"
	if _, err := os.Stat(path); err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			path = filepath.Join(home, ".goscheme.yaml")
		}
	}
	loaded, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		loaded = config.Default()
	}
	cfg = loaded
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
