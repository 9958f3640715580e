// Command compose renders, validates and serves composed templates.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *exitError) Unwrap() error { return e.err }

func fail(code int, msg string, err error) error {
	return &exitError{code: code, msg: msg, err: err}
}

// run executes the CLI against the given arguments and streams and
// returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitCodeSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, exitErr.msg, exitErr.err)
		} else {
			fmt.Fprintf(stderr, "error: %s\n", exitErr.msg)
		}
		return exitErr.code
	}

	// Anything else comes from cobra's own argument and flag parsing.
	fmt.Fprintf(stderr, "error: %v\n", err)
	return ExitCodeUsageError
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIShort,
		Long:          CLIDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		newRenderCmd(),
		newValidateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}
