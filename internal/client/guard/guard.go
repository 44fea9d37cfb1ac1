// Package guard implements the pre-navigation check the router calls before
// every page change.
//
// Paths on the public allow-list never require authentication; every other
// path does. Enforcement of that requirement is a policy switch that is
// currently off by default: with enforcement disabled Check always lets the
// navigation proceed and only reports (and logs) what it would have done.
package guard

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/dmitrijs2005/forumsession/internal/logging"
)

const DefaultLoginPath = "/login"

// DefaultPublicPaths are reachable without a session.
var DefaultPublicPaths = []string{"/", "/login", "/register"}

// AuthState reports whether a session is currently authenticated.
// *session.State and *session.Manager satisfy it.
type AuthState interface {
	IsAuthenticated() bool
}

// Decision is the outcome of Check. When Proceed is false, Redirect holds
// the path the router should go to instead.
type Decision struct {
	Path         string
	RequiresAuth bool
	Proceed      bool
	Redirect     string
}

type Guard struct {
	auth      AuthState
	public    map[string]struct{}
	loginPath string
	enforce   bool
	log       logging.Logger
}

type Option func(*Guard)

// WithPublicPaths replaces the public allow-list.
func WithPublicPaths(paths ...string) Option {
	return func(g *Guard) {
		g.public = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			g.public[normalize(p)] = struct{}{}
		}
	}
}

func WithLoginPath(p string) Option {
	return func(g *Guard) { g.loginPath = normalize(p) }
}

// WithEnforcement turns redirecting of unauthenticated navigation on or off.
func WithEnforcement(on bool) Option {
	return func(g *Guard) { g.enforce = on }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) { g.log = l }
}

func New(auth AuthState, opts ...Option) *Guard {
	g := &Guard{auth: auth, loginPath: DefaultLoginPath, log: logging.Nop()}
	WithPublicPaths(DefaultPublicPaths...)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Enforcing() bool {
	return g.enforce
}

// RequiresAuth reports whether destination is outside the public allow-list.
func (g *Guard) RequiresAuth(destination string) bool {
	_, public := g.public[normalize(destination)]
	return !public
}

// Check decides whether navigation to destination may proceed.
func (g *Guard) Check(ctx context.Context, destination string) Decision {
	p := normalize(destination)
	d := Decision{Path: p, RequiresAuth: g.RequiresAuth(p), Proceed: true}

	if !d.RequiresAuth || g.auth.IsAuthenticated() {
		return d
	}

	if !g.enforce {
		g.log.Warn(ctx, "unauthenticated navigation to protected path allowed", "path", p)
		return d
	}

	d.Proceed = false
	d.Redirect = g.loginPath
	g.log.Info(ctx, "redirecting unauthenticated navigation", "path", p, "redirect", g.loginPath)
	return d
}

// normalize reduces a destination to its cleaned path: query and fragment
// are dropped and a missing leading slash is added.
func normalize(destination string) string {
	p := strings.TrimSpace(destination)
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
