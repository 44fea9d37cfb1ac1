package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/forumsession/internal/client/config"
	"github.com/dmitrijs2005/forumsession/internal/client/credstore"
	"github.com/dmitrijs2005/forumsession/internal/client/guard"
	"github.com/dmitrijs2005/forumsession/internal/client/httpclient"
	"github.com/dmitrijs2005/forumsession/internal/client/session"
	"github.com/dmitrijs2005/forumsession/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	homeRoute  = "/"
	loginRoute = guard.DefaultLoginPath
)

// memoryStorage selects a process-local credential store.
const memoryStorage = ":memory:"

type App struct {
	config  *config.Config
	log     logging.Logger
	session *session.Manager
	guard   *guard.Guard
	reader  *bufio.Reader
	out     io.Writer
	closer  io.Closer

	mu    sync.RWMutex
	route string
}

// NewApp opens the credential storage named by c.StoragePath and wires the
// session core against c.ServerBaseURL.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, os.Stderr)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	store, closer, err := openStore(ctx, c.StoragePath)
	if err != nil {
		log.Error(ctx, "error initializing credential storage", "path", c.StoragePath, "err", err)
		return nil, err
	}

	return newApp(c, store, closer, os.Stdin, os.Stdout, log), nil
}

func openStore(ctx context.Context, path string) (credstore.Store, io.Closer, error) {
	if path == "" || path == memoryStorage {
		return credstore.NewMemoryStore(), nil, nil
	}
	db, err := credstore.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return credstore.NewSQLiteStore(db), db, nil
}

func newApp(c *config.Config, store credstore.Store, closer io.Closer, in io.Reader, out io.Writer, log logging.Logger) *App {
	a := &App{
		config: c,
		log:    log,
		reader: bufio.NewReader(in),
		out:    out,
		closer: closer,
		route:  homeRoute,
	}

	state := session.NewState()
	api := httpclient.New(c.ServerBaseURL, c.RequestTimeout, httpclient.WithMiddleware(
		httpclient.Tracing(nil),
		httpclient.RequestID(),
		httpclient.Logging(log),
		httpclient.BearerAuth(store),
		httpclient.ClearOnUnauthorized(store, log, state),
	))

	a.session = session.NewManager(api, store, state, a, log)
	a.guard = guard.New(state, guard.WithEnforcement(c.EnforceAuthGuard), guard.WithLogger(log))
	return a
}

// Run restores a stored session, then serves the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.session.Restore(ctx); err != nil {
		a.log.Error(ctx, "could not restore session", "err", err)
	}

	fmt.Fprintln(a.out, "Welcome to the forum CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close releases the credential storage.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	user := "guest"
	if p := a.session.Profile(); p != nil {
		user = p.Username
	} else if a.isLoggedIn() {
		user = "?"
	}
	return fmt.Sprintf("(%s %s)", user, a.currentRoute())
}
