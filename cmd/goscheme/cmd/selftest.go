package cmd

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the built-in test suite",
	Long: `Selftest runs the module's own package test suite (compiler/VM tests and
interpreter tests), the Go equivalent of the original's -t flag, which ran
its bundled vm/compiler and interpreter test modules.`,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(_ *cobra.Command, _ []string) error {
	goTool, err := exec.LookPath("go")
	if err != nil {
		return err
	}

	testCmd := exec.Command(goTool, "test", "./...")
	testCmd.Stdout = os.Stdout
	testCmd.Stderr = os.Stderr
	return testCmd.Run()
}
