// Package cli implements the notechain command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "notechain" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "notechain",
		Short: "Copy and synchronize notes along a chain of learner stages",
		Long: "notechain keeps parallel note collections for a chain of learners in step.\n" +
			"Notes are copied forward from one stage to the next, and every later\n" +
			"stage is synchronized against the master stage.\n\n" +
			"Data is kept by the sqlite backend. The memory backend (backend: memory in\n" +
			"config.yaml) lives only for one command and is meant for trying things out.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .notechain-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTypeCmd())
	root.AddCommand(newDeckCmd())
	root.AddCommand(newNoteCmd())
	root.AddCommand(newCopyCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newUndoCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// exitError carries the exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by bad input.
func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysError marks err as an environment or storage failure.
func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}
