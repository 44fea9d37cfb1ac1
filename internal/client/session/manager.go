// Package session drives the login / registration / logout lifecycle.
//
// A Manager keeps its State consistent with the credential store:
//   - Login stores the issued token, loads the profile, then navigates home.
//   - Register creates an account without logging in.
//   - FetchProfile never fails: any error is treated as an invalid session
//     and turned into Logout.
//   - Logout clears memory and storage and navigates to the login page.
//
// Login and Register return transport and server errors unchanged, so the UI
// can decide what to show. Concurrent Login calls are serialized; the last
// one to finish determines the session.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/forumsession/internal/client/credstore"
	"github.com/dmitrijs2005/forumsession/internal/client/httpclient"
	"github.com/dmitrijs2005/forumsession/internal/logging"
)

const (
	TokenPath       = "/token"
	UsersPath       = "/users"
	CurrentUserPath = "/users/me"
)

// Doer sends a request through the HTTP pipeline. *httpclient.Client
// satisfies it.
type Doer interface {
	Do(ctx context.Context, r *httpclient.Request) (*httpclient.Response, error)
}

// Navigator is the navigation capability the session core needs. The UI
// layer decides what "home" and "login" mean.
type Navigator interface {
	NavigateHome(ctx context.Context)
	NavigateToLogin(ctx context.Context)
}

type noopNavigator struct{}

func (noopNavigator) NavigateHome(context.Context)    {}
func (noopNavigator) NavigateToLogin(context.Context) {}

type Manager struct {
	api   Doer
	store credstore.Store
	state *State
	nav   Navigator
	log   logging.Logger

	loginMu sync.Mutex
}

// NewManager wires a Manager. A nil state creates a fresh one; a nil
// navigator disables navigation. Call Restore once at start-up.
func NewManager(api Doer, store credstore.Store, state *State, nav Navigator, log logging.Logger) *Manager {
	if state == nil {
		state = NewState()
	}
	if nav == nil {
		nav = noopNavigator{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{api: api, store: store, state: state, nav: nav, log: log.With("component", "session")}
}

func (m *Manager) State() *State {
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	return m.state.IsAuthenticated()
}

func (m *Manager) Profile() *Profile {
	return m.state.Profile()
}

// Restore loads a previously stored credential into memory and, if there is
// one, re-fetches the profile.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if token == "" {
		m.state.clear()
		return nil
	}

	m.state.setCredential(token)
	m.log.Debug(ctx, "restored stored credential")
	m.FetchProfile(ctx)
	return nil
}

// Login exchanges username/password for a token, loads the profile and
// navigates home. Only the token exchange can fail; on failure the session is
// left as it was and the error is returned unchanged.
func (m *Manager) Login(ctx context.Context, req LoginRequest) error {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	form := url.Values{}
	form.Set("username", req.Username)
	form.Set("password", req.Password)

	resp, err := m.api.Do(ctx, httpclient.NewFormRequest(http.MethodPost, TokenPath, form))
	if err != nil {
		m.log.Warn(ctx, "login failed", "user", req.Username, "err", err)
		return err
	}

	var tr tokenResponse
	if err := resp.DecodeJSON(&tr); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("%w: empty access_token", ErrMalformedResponse)
	}

	if err := m.store.Set(ctx, tr.AccessToken); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	m.state.setCredential(tr.AccessToken)

	m.log.Info(ctx, "logged in", "user", req.Username)

	// a failed profile fetch logs out on its own; Login still succeeded
	m.FetchProfile(ctx)
	m.nav.NavigateHome(ctx)
	return nil
}

// Register creates an account. It does not log the user in. The created
// profile is returned when the server includes one in its reply.
func (m *Manager) Register(ctx context.Context, req RegistrationRequest) (*Profile, error) {
	r, err := httpclient.NewJSONRequest(http.MethodPost, UsersPath, req)
	if err != nil {
		return nil, err
	}

	resp, err := m.api.Do(ctx, r)
	if err != nil {
		m.log.Warn(ctx, "registration failed", "user", req.Username, "err", err)
		return nil, err
	}

	m.log.Info(ctx, "registered", "user", req.Username)

	var env envelope[Profile]
	if err := resp.DecodeJSON(&env); err != nil || env.Data == nil {
		return nil, nil
	}
	return env.Data, nil
}

// FetchProfile loads the current user's profile. Any failure, including a
// malformed payload, logs the session out; the error is not returned.
func (m *Manager) FetchProfile(ctx context.Context) {
	token := m.state.Credential()

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		m.log.Warn(ctx, "profile fetch failed, logging out", "err", err)
		m.Logout(ctx)
		return
	}

	if !m.state.setProfileFor(token, profile) {
		m.log.Debug(ctx, "discarding profile fetched with a replaced credential")
	}
}

func (m *Manager) fetchProfile(ctx context.Context) (*Profile, error) {
	resp, err := m.api.Do(ctx, httpclient.NewRequest(http.MethodGet, CurrentUserPath))
	if err != nil {
		return nil, err
	}

	var env envelope[Profile]
	if err := resp.DecodeJSON(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	return env.Data, nil
}

// Logout clears the session in memory and in storage, then navigates to the
// login page. It is safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	m.state.clear()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to clear stored credential", "err", err)
	}
	m.nav.NavigateToLogin(ctx)
	m.log.Info(ctx, "logged out")
}
