package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// invalid prints a validation failure and returns it.
func (a *App) invalid(err error) error {
	fmt.Fprintf(a.out, "Invalid input: %s\n", err)
	return err
}

// Register prompts for a name, email and password and creates the account.
// The store logs the new user in on success.
//
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	form := registerForm{FullName: name, Email: email, Password: string(password)}
	if err := a.validate.Validate(form); err != nil {
		return a.invalid(err)
	}

	return a.session.Register(ctx, models.Registration{
		FullName: form.FullName,
		Email:    form.Email,
		Password: form.Password,
	})
}

// Login prompts for credentials and authenticates. Outcome messages are
// reported by the session store.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	form := loginForm{Email: email, Password: string(password)}
	if err := a.validate.Validate(form); err != nil {
		return a.invalid(err)
	}

	return a.session.Login(ctx, form.Email, form.Password)
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	return nil
}

// WhoAmI prints the signed-in user and when the stored credential expires.
func (a *App) WhoAmI(_ context.Context) error {
	u, ok := a.session.User()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	role := "customer"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.FullName, u.Email, role)

	if exp, ok := a.session.CredentialExpiry(); ok {
		fmt.Fprintf(a.out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}
