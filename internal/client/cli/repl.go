package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Books(ctx context.Context) error
	Search(ctx context.Context) error
	Suggest(ctx context.Context, text string) error
	Show(ctx context.Context, id string) error
	Rate(ctx context.Context, stars string) error
	Review(ctx context.Context) error
	Like(ctx context.Context, reviewID string) error
	Dislike(ctx context.Context, reviewID string) error
	Genres(ctx context.Context) error
	Authors(ctx context.Context) error
	AdminAdd(ctx context.Context) error
	AdminEdit(ctx context.Context, id string) error
	AdminDelete(ctx context.Context, id string) error
}

const (
	helpGuest = "Available commands: register, login, books, search, suggest <text>, show <id>, genres, authors, exit"
	helpUser  = "Available commands: books, search, suggest <text>, show <id>, rate <stars>, review, like <reviewId>, dislike <reviewId>, genres, authors, whoami, logout, exit"
	helpAdmin = "Admin commands: admin add, admin edit <id>, admin delete <id>"
)

// runREPL reads commands from reader and dispatches them to a until input
// ends or the user types "exit" or "quit".
//
// Commands that need a session or administrator rights are refused here
// with a hint instead of being dispatched. Errors returned by handlers are
// ignored; the stores and handlers report their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("books (%s)> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUser)
			} else {
				printlnFn(helpGuest)
			}
			if a.isAdmin() {
				printlnFn(helpAdmin)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			if requireLogin(a) {
				_ = a.Logout(ctx)
			}

		case "whoami":
			if requireLogin(a) {
				_ = a.WhoAmI(ctx)
			}

		case "books", "list":
			_ = a.Books(ctx)

		case "search":
			_ = a.Search(ctx)

		case "suggest":
			if len(args) == 0 {
				printlnFn("Usage: suggest <text>")
				continue
			}
			_ = a.Suggest(ctx, strings.Join(args, " "))

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "rate":
			if len(args) != 1 {
				printlnFn("Usage: rate <stars>")
				continue
			}
			if requireLogin(a) {
				_ = a.Rate(ctx, args[0])
			}

		case "review":
			if requireLogin(a) {
				_ = a.Review(ctx)
			}

		case "like", "dislike":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <reviewId>", cmd))
				continue
			}
			if !requireLogin(a) {
				continue
			}
			if cmd == "like" {
				_ = a.Like(ctx, args[0])
			} else {
				_ = a.Dislike(ctx, args[0])
			}

		case "genres":
			_ = a.Genres(ctx)

		case "authors":
			_ = a.Authors(ctx)

		case "admin":
			if !requireAdmin(a) {
				continue
			}
			dispatchAdmin(ctx, a, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func dispatchAdmin(ctx context.Context, a execIface, args []string) {
	if len(args) == 0 {
		printlnFn(helpAdmin)
		return
	}

	switch {
	case args[0] == "add" && len(args) == 1:
		_ = a.AdminAdd(ctx)
	case args[0] == "edit" && len(args) == 2:
		_ = a.AdminEdit(ctx, args[1])
	case args[0] == "delete" && len(args) == 2:
		_ = a.AdminDelete(ctx, args[1])
	default:
		printlnFn(helpAdmin)
	}
}

func requireLogin(a execIface) bool {
	if a.isLoggedIn() {
		return true
	}
	printlnFn("Please log in first.")
	return false
}

func requireAdmin(a execIface) bool {
	if a.isAdmin() {
		return true
	}
	printlnFn("Admin access required.")
	return false
}
