package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Open(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Reset(ctx context.Context) error
}

const helpText = "Available commands: open <voiceId> [name], (l)ist, sync, status, reset, help, exit"

// runREPL reads commands from scanner until EOF, "exit" or "quit".
// Handlers report their own errors, so returned errors are dropped here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("voices (%s)> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "open":
			_ = a.Open(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
