package cli

import (
	"context"
	"fmt"
)

// NavigateHome implements session.Navigator.
func (a *App) NavigateHome(ctx context.Context) {
	a.setRoute(homeRoute)
	a.log.Debug(ctx, "navigated", "route", homeRoute)
}

// NavigateToLogin implements session.Navigator.
func (a *App) NavigateToLogin(ctx context.Context) {
	a.setRoute(loginRoute)
	a.log.Debug(ctx, "navigated", "route", loginRoute)
}

func (a *App) currentRoute() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.route
}

func (a *App) setRoute(r string) {
	a.mu.Lock()
	a.route = r
	a.mu.Unlock()
}

// Go moves to dest if the guard allows it, otherwise to the redirect it
// names.
func (a *App) Go(ctx context.Context, dest string) error {
	d := a.guard.Check(ctx, dest)
	if !d.Proceed {
		a.setRoute(d.Redirect)
		fmt.Fprintf(a.out, "%s requires login, redirected to %s\n", d.Path, d.Redirect)
		return nil
	}

	a.setRoute(d.Path)
	fmt.Fprintln(a.out, "Now at", d.Path)
	return nil
}

// Status prints the session and routing state.
func (a *App) Status(ctx context.Context) error {
	snap := a.session.State().Snapshot()

	fmt.Fprintln(a.out, "Server:        ", a.config.ServerBaseURL)
	fmt.Fprintln(a.out, "Route:         ", a.currentRoute())
	fmt.Fprintln(a.out, "Authenticated: ", snap.Authenticated)
	fmt.Fprintln(a.out, "Profile loaded:", snap.Profile != nil)
	fmt.Fprintln(a.out, "Guard enforced:", a.guard.Enforcing())
	return nil
}
