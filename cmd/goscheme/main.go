package main

import (
	"fmt"
	"os"

	"github.com/deanmchris/Schemey/cmd/goscheme/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
