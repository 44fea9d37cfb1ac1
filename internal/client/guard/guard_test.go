package guard

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/forumsession/internal/logging"
	"github.com/stretchr/testify/assert"
)

type fakeAuth bool

func (f fakeAuth) IsAuthenticated() bool { return bool(f) }

func TestRequiresAuth(t *testing.T) {
	g := New(fakeAuth(false))

	tests := []struct {
		dest string
		want bool
	}{
		{"/", false},
		{"/login", false},
		{"/register", false},
		{"/login/", false},
		{"/login?next=/my-posts", false},
		{"register", false},
		{"", false},
		{"/my-posts", true},
		{"/post/42", true},
		{"/register/extra", true},
		{"/users/../login", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.RequiresAuth(tt.dest), tt.dest)
	}
}

func TestCheck_EnforcementDisabledAlwaysProceeds(t *testing.T) {
	var buf bytes.Buffer
	g := New(fakeAuth(false), WithLogger(logging.New("debug", &buf)))
	assert.False(t, g.Enforcing())

	d := g.Check(context.Background(), "/my-posts")
	assert.Equal(t, Decision{Path: "/my-posts", RequiresAuth: true, Proceed: true}, d)
	assert.Contains(t, buf.String(), "level=WARN")

	d = g.Check(context.Background(), "/")
	assert.Equal(t, Decision{Path: "/", RequiresAuth: false, Proceed: true}, d)
}

func TestCheck_EnforcementEnabled(t *testing.T) {
	tests := []struct {
		name   string
		authed bool
		dest   string
		want   Decision
	}{
		{name: "public, anonymous", dest: "/register",
			want: Decision{Path: "/register", Proceed: true}},
		{name: "protected, anonymous", dest: "/my-posts",
			want: Decision{Path: "/my-posts", RequiresAuth: true, Redirect: "/login"}},
		{name: "protected, authenticated", authed: true, dest: "/my-posts",
			want: Decision{Path: "/my-posts", RequiresAuth: true, Proceed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(fakeAuth(tt.authed), WithEnforcement(true))
			assert.Equal(t, tt.want, g.Check(context.Background(), tt.dest))
		})
	}
}

func TestOptions(t *testing.T) {
	g := New(fakeAuth(false),
		WithEnforcement(true),
		WithPublicPaths("/", "/about"),
		WithLoginPath("signin"),
	)

	assert.False(t, g.RequiresAuth("/about"))
	assert.True(t, g.RequiresAuth("/register"))
	assert.Equal(t, "/signin", g.Check(context.Background(), "/register").Redirect)
}
