// Command jsconform runs ECMAScript conformance scripts against an embedded
// engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/jsconform/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands print their own failures; only report errors that were
		// never formatted (flag parsing, argument counts).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
