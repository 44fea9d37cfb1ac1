package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Status(ctx context.Context) error
	Go(ctx context.Context, dest string) error
}

// runREPL starts a simple read–eval–print loop for the forum CLI.
//
// It reads a line from reader, writes prompts and messages to out (the
// same writer the command handlers use), parses the first token as the command, and
// dispatches to methods on 'a'. Command prompts read from the same reader,
// so they see the lines that follow the command. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account
//	  - login          authenticate
//	  - status         show session state
//	  - go <path>      navigate (subject to the guard)
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - whoami         show the current profile
//	  - logout         log out
//	  plus status, go, help, exit
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "forum %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: whoami, status, go <path>, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, status, go <path>, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "status":
			_ = a.Status(ctx)

		case "go":
			if len(args) == 0 {
				fmt.Fprintln(out, "Usage: go <path>")
				continue
			}
			_ = a.Go(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
