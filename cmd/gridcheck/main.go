// File: cmd/gridcheck/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/gridcheck/cmd"
	"github.com/xkilldash9x/gridcheck/internal/observability"
)

const panicLogFile = "panic.log"

// Swapped out in tests.
var (
	osWriteFile           = os.WriteFile
	osExit                = os.Exit
	stderr      io.Writer = os.Stderr
	execute               = cmd.Execute
)

func main() {
	defer handlePanic()

	// An interrupt cancels the page load and the browser is shut down on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	observability.Sync()
	osExit(code)
}

// run executes the command tree and maps the outcome to a process exit code.
// Grid violations, fatal errors and interrupted runs all exit 1.
func run(ctx context.Context) int {
	if err := execute(ctx); err != nil {
		return 1
	}
	return 0
}

// handlePanic records an unexpected panic in panic.log and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(stderr, "Panic details:\n%s\n", panicMessage)
		osExit(1)
		return
	}

	fmt.Fprintf(stderr, "gridcheck crashed unexpectedly: %v\n", r)
	fmt.Fprintf(stderr, "Details logged to %s\n", panicLogFile)
	osExit(1)
}
