// Package admin implements todoadmin, the operator tool that applies
// migrations and creates or removes accounts through the same services the
// server uses.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/flagx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
)

var ErrUsage = errors.New("usage: todoadmin <migrate|useradd|userdel> [-email address] [server flags]")

// Accounts is implemented by services.UserService.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

type App struct {
	accounts Accounts
	migrate  func(ctx context.Context) error

	in   *bufio.Reader
	out  io.Writer
	term Terminal
	fd   int
}

// NewApp builds the tool. fd is the descriptor passwords are read from
// when it is a terminal; otherwise they are read as lines from in.
func NewApp(accounts Accounts, migrate func(ctx context.Context) error, in io.Reader, out io.Writer, fd int) *App {
	return &App{
		accounts: accounts,
		migrate:  migrate,
		in:       bufio.NewReader(in),
		out:      out,
		term:     xterm{},
		fd:       fd,
	}
}

// Run executes the command named by args[0]. Flags the command does not own
// are ignored so server configuration flags can share the command line.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "migrate":
		if err := a.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Migrations applied")
		return nil
	case "useradd":
		email, err := emailFlag(args[1:])
		if err != nil {
			return err
		}
		return a.userAdd(ctx, email)
	case "userdel":
		email, err := emailFlag(args[1:])
		if err != nil {
			return err
		}
		return a.userDel(ctx, email)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func emailFlag(args []string) (string, error) {
	fs := flag.NewFlagSet("todoadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email"})); err != nil {
		return "", fmt.Errorf("parse flags: %w", err)
	}
	if *email == "" {
		return "", fmt.Errorf("-email is required: %w", ErrUsage)
	}
	return *email, nil
}

func (a *App) userAdd(ctx context.Context, email string) error {
	password, err := a.promptPassword("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := a.promptPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	u, err := a.accounts.Register(ctx, services.RegisterInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %d (%s)\n", u.ID, u.Email)
	return nil
}

func (a *App) userDel(ctx context.Context, email string) error {
	u, err := a.accounts.FindByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("no user with email %q: %w", email, err)
	}
	if err != nil {
		return err
	}

	if err := a.accounts.DeleteAccount(ctx, u.ID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Deleted user %d (%s) and their todos\n", u.ID, u.Email)
	return nil
}
