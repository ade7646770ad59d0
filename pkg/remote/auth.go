package remote

import (
	"context"
	"net/http"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
)

// TokenPair carries the ERP-issued tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserInfo identifies the signed-in employee.
type UserInfo struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair. Unauthenticated call.
func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if username == "" || password == "" {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	var pair TokenPair
	err := c.call(ctx, callOptions{
		method: http.MethodPost,
		path:   "/users/login",
		body:   loginRequest{Username: username, Password: password},
		noAuth: true,
	}, &pair)
	return pair, err
}

// RefreshToken rotates the token pair. Unauthenticated call carrying the
// refresh token in the body.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token missing")
	}
	var pair TokenPair
	err := c.call(ctx, callOptions{
		method: http.MethodPost,
		path:   "/users/refresh-token",
		body:   refreshRequest{RefreshToken: refreshToken},
		noAuth: true,
	}, &pair)
	return pair, err
}

// CurrentUser returns the signed-in user's identity.
func (c *Client) CurrentUser(ctx context.Context) (UserInfo, error) {
	var info UserInfo
	err := c.call(ctx, callOptions{
		method: http.MethodGet,
		path:   "/users/me",
	}, &info)
	return info, err
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, callOptions{
		method: http.MethodPost,
		path:   "/users/logout",
	}, nil)
}
