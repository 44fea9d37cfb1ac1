// Package cli provides the interactive forum command-line client.
//
// It wires configuration, credential storage, the HTTP pipeline, the session
// manager and the navigation guard behind a small REPL. The App tracks a
// current route the way a browser would: login navigates home, logout and
// lost sessions navigate to the login page, and "go <path>" asks the guard
// before moving.
//
// Commands:
//   - register / login / logout
//   - whoami, status
//   - go <path>
//   - help, exit
//
// The REPL is started via App.Run(ctx), which restores any stored session
// and blocks until the user exits.
package cli
