package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/forumsession/internal/client/httpclient"
	"github.com/dmitrijs2005/forumsession/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, password and optional avatar URL and
// creates the account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	avatar, err := getSimpleText(a.reader, "Avatar URL (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := a.session.Register(ctx, session.RegistrationRequest{
		Username:  userName,
		Password:  string(password),
		AvatarURL: avatar,
	})
	if err != nil {
		fmt.Fprintln(a.out, "Registration failed:", describe(err))
		return err
	}

	if p != nil {
		fmt.Fprintf(a.out, "Registered %s (id %d). You can log in now.\n", p.Username, p.ID)
	} else {
		fmt.Fprintln(a.out, "Registered. You can log in now.")
	}
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, session.LoginRequest{Username: userName, Password: string(password)}); err != nil {
		fmt.Fprintln(a.out, "Login failed:", describe(err))
		return err
	}

	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Logged in, but the profile could not be loaded. Please log in again.")
		return nil
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", userName)
	return nil
}

// Logout ends the session. It is fine to call when logged out.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami prints the current profile.
func (a *App) Whoami(ctx context.Context) error {
	p := a.session.Profile()
	if p == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	fmt.Fprintf(a.out, "%s (id %d)\n", p.Username, p.ID)
	if p.AvatarURL != "" {
		fmt.Fprintln(a.out, "avatar: ", p.AvatarURL)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintln(a.out, "member since:", p.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// describe turns an error into a message for the user, preferring the
// server's own detail text.
func describe(err error) string {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		if d := he.Detail(); d != "" {
			return d
		}
	}
	if errors.Is(err, httpclient.ErrUnavailable) {
		return "server unavailable, try again later"
	}
	return err.Error()
}
