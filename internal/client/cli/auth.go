package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/safecircle/internal/client/client"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a user name and password and creates the account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		return err
	}

	a.printf("Account %s created, you can log in now", userName)
	return nil
}

// Login prompts for credentials and opens a session bound to this device.
// A session held by another device is reported and left alone; the user
// has to log out there first.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in as %s", a.api.UserName())
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	err = a.api.Login(ctx, userName, string(password))
	switch {
	case err == nil:
	case errors.Is(err, client.ErrSessionConflict):
		a.printf("%s is logged in on another device; log out there first", userName)
		return err
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
		return err
	default:
		return err
	}

	a.resetSessionView()
	a.setMode(ModeOnline)
	a.printf("Logged in as %s", userName)

	// First poll right away so the prompt reflects the current group.
	if err := a.pollOnce(ctx); err != nil {
		a.logger.Warn(ctx, "initial sync failed", "error", err)
	}
	return nil
}

// Logout closes the session on the server; local state is cleared even if
// the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}
	err := a.api.Logout(ctx)
	a.resetSessionView()
	if err != nil {
		return err
	}
	a.printf("Logged out")
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
