package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Where(ctx context.Context, args []string) error
	Peers(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	CreateGroup(ctx context.Context, args []string) error
	JoinGroup(ctx context.Context, args []string) error
	LeaveGroup(ctx context.Context) error
	Groups(ctx context.Context, args []string) error
	Members(ctx context.Context) error
	Say(ctx context.Context, args []string) error
	PrivateMessage(ctx context.Context, args []string) error
	Sos(ctx context.Context, args []string) error
	Invite(ctx context.Context, args []string) error
	RejectInvite(ctx context.Context, args []string) error
	Ignore(ctx context.Context, args []string) error
	Unignore(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	AttachmentURL(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, where [lat lon], exit"
	helpLoggedIn  = "Available commands: where [lat lon], peers [km], sync, create <name> [public], join <id>, leave, " +
		"groups [km], members, say [text], pm <user> [text], sos [comment], invite <user>, reject <id>, " +
		"ignore <user>, unignore <user>, upload <photo|audio> [file], url <key>, download <key>, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the SafeCircle CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. Commands that need a session are refused while logged out.
// The loop exits on scanner EOF, on ctx cancellation, or when the user
// types "exit" or "quit".
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sc %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if err := dispatch(ctx, a, cmd, args); err != nil {
			if errors.Is(err, errQuit) {
				printlnFn("Bye!")
				return
			}
			printlnFn("Error:", err)
		}
	}
}

var errQuit = errors.New("quit")

// sessionCommands are refused while logged out.
var sessionCommands = map[string]bool{
	"logout": true, "peers": true, "sync": true, "create": true, "join": true, "leave": true,
	"groups": true, "members": true, "say": true, "pm": true, "sos": true, "invite": true,
	"reject": true, "ignore": true, "unignore": true, "upload": true, "url": true, "download": true,
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	if sessionCommands[cmd] && !a.isLoggedIn() {
		return fmt.Errorf("%s: log in first", cmd)
	}

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "where":
		return a.Where(ctx, args)
	case "peers":
		return a.Peers(ctx, args)
	case "sync":
		return a.Sync(ctx)
	case "create":
		return a.CreateGroup(ctx, args)
	case "join":
		return a.JoinGroup(ctx, args)
	case "leave":
		return a.LeaveGroup(ctx)
	case "groups":
		return a.Groups(ctx, args)
	case "members":
		return a.Members(ctx)
	case "say":
		return a.Say(ctx, args)
	case "pm":
		return a.PrivateMessage(ctx, args)
	case "sos":
		return a.Sos(ctx, args)
	case "invite":
		return a.Invite(ctx, args)
	case "reject":
		return a.RejectInvite(ctx, args)
	case "ignore":
		return a.Ignore(ctx, args)
	case "unignore":
		return a.Unignore(ctx, args)
	case "upload":
		return a.Upload(ctx, args)
	case "url":
		return a.AttachmentURL(ctx, args)
	case "download":
		return a.Download(ctx, args)
	case "exit", "quit":
		return errQuit
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
