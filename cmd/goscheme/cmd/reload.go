package cmd

import (
	"fmt"
	"os"

	"github.com/deanmchris/Schemey/internal/diagnostics"
	"github.com/deanmchris/Schemey/internal/vm"
	"github.com/deanmchris/Schemey/pkg/schemey"
	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload <src>",
	Short: "Compile, write, reload and execute a source file",
	Long: `Reload exercises the full round trip: compile src, write it to its
default .pcode path, deserialize that file back, and execute the result —
useful for confirming the on-disk container format is bit-exact.`,
	Args: cobra.ExactArgs(1),
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(_ *cobra.Command, args []string) error {
	src := args[0]
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	code, err := schemey.Compile(string(data))
	if err != nil {
		d := diagnostics.FromError(err)
		return fmt.Errorf("%s", diagnostics.Format(d, string(data), src))
	}

	outPath := defaultPcodePath(src)
	blob, err := schemey.Serialize(code)
	if err != nil {
		return fmt.Errorf("failed to serialize bytecode: %w", err)
	}
	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logVerbose("wrote %s (%d bytes)\n", outPath, len(blob))

	reloaded, err := os.ReadFile(outPath)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", outPath, err)
	}
	reloadedCode, err := schemey.Deserialize(reloaded)
	if err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", outPath, err)
	}

	machine := vm.New(os.Stdout)
	machine.SetMaxDepth(cfg.RecursionBudget)
	result, err := machine.Run(reloadedCode)
	if err != nil {
		d := diagnostics.FromError(err)
		return fmt.Errorf("%s", diagnostics.Format(d, "", outPath))
	}

	logVerbose("=> %s\n", result.String())
	return nil
}
