// Package apitest runs an in-process fake of the forum authentication API
// (POST /token, POST /users, GET /users/me, GET /posts) for tests.
//
// Tokens are HS256 JWTs whose subject is the username, mirroring the real
// backend. Individual responses can be overridden with Respond/FailNext to
// simulate expired sessions or malformed payloads.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const naiveLayout = "2006-01-02T15:04:05.000000"

// User is a registered account on the fake server.
type User struct {
	ID        int64
	Username  string
	Password  string
	AvatarURL string
	CreatedAt time.Time
}

// Recorded is one request seen by the server.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
}

type override struct {
	status int
	body   string
}

// Server is the fake API. Its URL field is the base URL to configure clients with.
type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu        sync.Mutex
	users     map[string]*User
	nextID    int64
	overrides map[string][]override
	requests  []Recorded
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:    []byte("apitest-secret"),
		tokenTTL:  time.Hour,
		users:     map[string]*User{},
		overrides: map[string][]override{},
	}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.handlePosts).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly, bypassing POST /users.
// An empty password accepts any password at login.
func (s *Server) AddUser(username, password, avatarURL string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, avatarURL)
}

func (s *Server) addUserLocked(username, password, avatarURL string) *User {
	s.nextID++
	u := &User{
		ID:        s.nextID,
		Username:  username,
		Password:  password,
		AvatarURL: avatarURL,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.users[username] = u
	return u
}

// DeleteUser removes an account; tokens issued for it stop validating.
func (s *Server) DeleteUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

// IssueToken signs a token for username valid for ttl (negative = expired).
func (s *Server) IssueToken(username string, ttl time.Duration) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Respond makes the next request to path answer with status and body.
// Calls queue up in order.
func (s *Server) Respond(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = append(s.overrides[path], override{status: status, body: body})
}

// FailNext makes the next request to path fail with status.
func (s *Server) FailNext(path string, status int) {
	s.Respond(path, status, `{"detail":"`+http.StatusText(status)+`"}`)
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// RequestsTo filters Requests by path.
func (s *Server) RequestsTo(path string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		var ov *override
		if queued := s.overrides[r.URL.Path]; len(queued) > 0 {
			ov = &queued[0]
			s.overrides[r.URL.Path] = queued[1:]
		}
		s.mu.Unlock()

		if ov != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(ov.status)
			_, _ = w.Write([]byte(ov.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userOut struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	CreatedAt string `json:"created_at"`
}

func toOut(u *User) userOut {
	return userOut{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL, CreatedAt: u.CreatedAt.Format(naiveLayout)}
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok || (u.Password != "" && u.Password != password) {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.IssueToken(username, s.tokenTTL),
		"token_type":   "bearer",
	})
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatar_url"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "username: field required"}},
		})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	u := s.addUserLocked(req.Username, req.Password, req.AvatarURL)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{Code: 200, Msg: "success", Data: toOut(u)})
}

func (s *Server) authenticate(r *http.Request) (*User, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, errors.New("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[claims.Subject]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return u, nil
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.authenticate(r)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Code: 200, Msg: "success", Data: toOut(u)})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Code: 200, Msg: "success", Data: map[string]any{
		"pagination": map[string]int{"page": 1, "pageSize": 10, "total": 0},
		"list":       []any{},
	}})
}
