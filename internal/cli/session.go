package cli

import (
	"context"
	"fmt"
	"os"
)

func (a *app) login(ctx context.Context, args []string) error {
	if a.offline {
		return errOffline
	}
	fs := newFlagSet("login", a.stderr)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or CHEMOCTL_PASSWORD)")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("CHEMOCTL_PASSWORD")
	}
	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if a.offline {
		user, err := a.catalog.Users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		return a.printUser(user)
	}
	user, err := a.session.Restore(ctx)
	if err != nil {
		return err
	}
	return a.printUser(user)
}
