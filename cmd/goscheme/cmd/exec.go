package cmd

import (
	"fmt"
	"os"

	"github.com/deanmchris/Schemey/internal/diagnostics"
	"github.com/deanmchris/Schemey/internal/vm"
	"github.com/deanmchris/Schemey/pkg/schemey"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <path>",
	Short: "Deserialize and execute a compiled bytecode file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(_ *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	code, err := schemey.Deserialize(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", path, err)
	}

	machine := vm.New(os.Stdout)
	machine.SetMaxDepth(cfg.RecursionBudget)
	result, err := machine.Run(code)
	if err != nil {
		d := diagnostics.FromError(err)
		return fmt.Errorf("%s", diagnostics.Format(d, "", path))
	}

	logVerbose("=> %s\n", result.String())
	return nil
}
