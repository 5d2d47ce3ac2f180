package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps the result to an exit code:
// 0 on success, 2 for usage errors and 1 for everything else.
func execute(args []string, out, errOut io.Writer) int {
	cmd := newRootCommand(out, errOut)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(errOut, "authviz: %v\n", err)

		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(errOut, "Run '%s --help' for usage.\n", ue.command)
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks errors caused by how the command was invoked
type usageError struct {
	command string
	err     error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
