// Command ffigen generates foreign function wrappers for compiled Futhark
// libraries.
package main

import (
	"fmt"
	"os"

	"github.com/syssam/ffigen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ffigen: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
