// Command hoabench evaluates LLM agents acting as an HOA manager.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hoabench/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hoabench: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
