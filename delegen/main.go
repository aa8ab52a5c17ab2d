// delegen generates delegate-based mock classes from interfaces and abstract classes.
// Point it at a C# or Go source file with `delegen gen <file>`, or add a `//go:generate delegen gen`
// comment next to a Go interface. Each member of the source type becomes a handler type, an
// event slot a test can assign, and an overriding member that calls the slot when it is set and
// returns default values when it is not. By default the mock is written into a sibling project
// named after the source project with a .Mock suffix.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/toejough/mockdelegates/delegen/run"
	output "github.com/toejough/mockdelegates/delegen/run/6_output"
)

// main is the entry point of the delegen tool.
func main() {
	if os.Args == nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run.Run(ctx, os.Args, os.Getenv, output.OSFileSystem{}, os.Stdout, os.Stderr)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
