package cmd

import (
	"fmt"
	"os"

	"github.com/deanmchris/Schemey/pkg/schemey"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <path>",
	Short: "Disassemble a compiled bytecode file",
	Long: `Disasm deserializes a .pcode file and prints the top-level CodeObject's
human-readable form: name, parameters, constants (recursing into nested
code objects) and one annotated line per instruction. The varnames pool
is not listed on its own; variable names appear only in the annotations
of the instructions that use them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(_ *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	code, err := schemey.Deserialize(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", path, err)
	}

	schemey.Disassemble(os.Stdout, code)
	return nil
}
