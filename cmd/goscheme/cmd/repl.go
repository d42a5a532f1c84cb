package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/deanmchris/Schemey/internal/builtins"
	"github.com/deanmchris/Schemey/internal/compiler"
	"github.com/deanmchris/Schemey/internal/diagnostics"
	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/value"
	"github.com/deanmchris/Schemey/internal/vm"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Enter the interactive read-eval-print loop",
	RunE:  runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// runREPL reads lines from stdin, accumulating them until parentheses
// balance, then compiles and runs the first top-level form and prints its
// result — unless the result is the undefined sentinel `print` returns.
// The literal word "exit" terminates the loop.
func runREPL(_ *cobra.Command, _ []string) error {
	machine := vm.New(os.Stdout)
	machine.SetMaxDepth(cfg.RecursionBudget)
	scanner := bufio.NewScanner(os.Stdin)

	history, _ := os.OpenFile(cfg.HistFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if history != nil {
		defer history.Close()
	}

	formatErr := diagnostics.Format
	if cfg.Color {
		formatErr = diagnostics.FormatColor
	}

	line := 1
	for {
		fmt.Printf("[%d]> ", line)
		input, ok := readBalancedForm(scanner)
		if !ok {
			fmt.Println()
			return nil
		}
		line++

		trimmed := strings.TrimSpace(input)
		if trimmed == "exit" {
			return nil
		}
		if trimmed == "" {
			continue
		}
		if history != nil {
			fmt.Fprint(history, input)
		}

		forms, err := reader.ReadAll(input)
		if err != nil {
			d := diagnostics.FromError(err)
			fmt.Println(formatErr(d, input, ""))
			continue
		}
		if len(forms) == 0 {
			continue
		}

		result, err := evalOne(machine, forms[0])
		if err != nil {
			d := diagnostics.FromError(err)
			fmt.Println(formatErr(d, input, ""))
			continue
		}

		if result.IsSymbol() && result.AsSymbol() == builtins.Undefined().AsSymbol() {
			continue
		}
		fmt.Printf("=> %s\n", result.String())
	}
}

// readBalancedForm reads lines until the accumulated input's parentheses
// balance (or stdin closes), printing a "...  " continuation prompt for
// every line after the first.
func readBalancedForm(scanner *bufio.Scanner) (string, bool) {
	var sb strings.Builder
	depth := 0

	for {
		if !scanner.Scan() {
			if sb.Len() == 0 {
				return "", false
			}
			return sb.String(), true
		}
		text := scanner.Text()
		sb.WriteString(text)
		sb.WriteByte('\n')
		depth += parenDelta(text)

		if depth <= 0 {
			return sb.String(), true
		}
		fmt.Print("...  ")
	}
}

func parenDelta(line string) int {
	delta := 0
	for _, r := range line {
		switch r {
		case '(':
			delta++
		case ')':
			delta--
		}
	}
	return delta
}

// evalOne compiles a single top-level form into its own CodeObject and
// runs it against the REPL's persistent global environment, so later
// inputs see definitions made by earlier ones.
func evalOne(machine *vm.VM, form value.Value) (value.Value, error) {
	code, err := compiler.Compile([]value.Value{form})
	if err != nil {
		return value.Value{}, err
	}
	return machine.Run(code)
}
