// Command coro is the command-line entrypoint for the coro scripting
// language: run a script file, or start the interactive REPL when
// given no arguments.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/yufengwng/coro/machine"
	"github.com/yufengwng/coro/repl"
	"github.com/yufengwng/coro/vm"
)

const (
	statusOK         = 0
	statusCompileErr = 1
	statusRuntimeErr = 2
	statusGeneralErr = 3
	statusUsageErr   = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "usage: coro [script]")
		return statusUsageErr
	}

	if len(args) == 1 {
		return runFile(args[0])
	}

	return runRepl()
}

// runFile reads, compiles, and runs the script at path against a
// fresh coroutine, returning the matching exit status.
func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[coro] error while reading file: %s\n", path)
		fmt.Fprintf(os.Stderr, "[coro] %s\n", err)
		return statusGeneralErr
	}

	_, err = vm.Run(context.Background(), string(src))
	if err == nil {
		return statusOK
	}

	var rtErr *machine.RuntimeError
	if errors.As(err, &rtErr) {
		fmt.Fprintf(os.Stderr, "[coro] runtime error: %s\n", err)
		return statusRuntimeErr
	}

	fmt.Fprintf(os.Stderr, "[coro] %s\n", err)
	return statusCompileErr
}

// runRepl starts the interactive shell and always reports success;
// the shell returns once the user quits with Ctrl+C/D or Esc.
func runRepl() int {
	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}
	repl.Start(username, repl.Options{})
	return statusOK
}
