package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/deanmchris/Schemey/internal/diagnostics"
	"github.com/deanmchris/Schemey/pkg/schemey"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <src> [out]",
	Short: "Compile a source file to bytecode",
	Long: `Compile reads a Scheme source file, compiles it to bytecode, and writes
the bit-exact binary container to out (default: src with its extension
replaced by .pcode, in src's directory).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(_ *cobra.Command, args []string) error {
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

	out := args[1:]
	outPath := defaultPcodePath(src)
	if len(out) == 1 {
		outPath = out[0]
	}

	blob, err := schemey.Serialize(code)
	if err != nil {
		return fmt.Errorf("failed to serialize bytecode: %w", err)
	}
	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	logVerbose("compiled %s -> %s (%d bytes)\n", src, outPath, len(blob))
	return nil
}

func defaultPcodePath(src string) string {
	if ext := lastExt(src); ext != "" {
		return strings.TrimSuffix(src, ext) + ".pcode"
	}
	return src + ".pcode"
}

func lastExt(path string) string {
	dot := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexAny(path, `/\`)
	if dot <= slash {
		return ""
	}
	return path[dot:]
}
