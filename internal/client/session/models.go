package session

import "github.com/dmitrijs2005/forumsession/internal/timex"

// Profile is the authenticated user's record as returned by GET /users/me.
type Profile struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	AvatarURL string          `json:"avatar_url"`
	CreatedAt timex.Timestamp `json:"created_at"`
}

// LoginRequest is never persisted.
type LoginRequest struct {
	Username string
	Password string
}

// RegistrationRequest is never persisted.
type RegistrationRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatar_url"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// envelope is the server's {code, msg, data} response wrapper.
type envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *T     `json:"data"`
}
