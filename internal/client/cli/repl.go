package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Accounts(ctx context.Context) error
	AddAccount(ctx context.Context) error
	RemoveAccount(ctx context.Context, args []string) error
	Switch(ctx context.Context, args []string) error
	Columns(ctx context.Context) error
	AddColumn(ctx context.Context, args []string) error
	RemoveColumn(ctx context.Context, args []string) error
	SetColumn(ctx context.Context, args []string) error
	MoveColumn(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, status, accounts, addaccount, rmaccount <id>, exit"
	helpLoggedIn  = "Available commands: status, accounts, addaccount, rmaccount <id>, switch <id>, " +
		"columns, addcolumn [type] [width] [did], rmcolumn <id>, setcolumn <id> name=value..., " +
		"movecolumn <id> <pos>, refresh, backup, restore, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the TauriSky client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. Unknown commands are reported back to the user. The loop exits
// on scanner EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ts %s> ", statusFn()))
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
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "accounts":
			_ = a.Accounts(ctx)

		case "addaccount":
			_ = a.AddAccount(ctx)

		case "rmaccount":
			_ = a.RemoveAccount(ctx, args)

		case "switch":
			_ = a.Switch(ctx, args)

		case "columns", "l":
			_ = a.Columns(ctx)

		case "addcolumn":
			_ = a.AddColumn(ctx, args)

		case "rmcolumn":
			_ = a.RemoveColumn(ctx, args)

		case "setcolumn":
			_ = a.SetColumn(ctx, args)

		case "movecolumn":
			_ = a.MoveColumn(ctx, args)

		case "refresh":
			_ = a.Refresh(ctx)

		case "backup":
			_ = a.Backup(ctx)

		case "restore":
			_ = a.Restore(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
