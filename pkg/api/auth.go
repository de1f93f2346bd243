package api

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores it when a token store
// is configured.
func (client *Client) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	var result LoginResult
	err := client.do(ctx, http.MethodPost, "/api/auth/login/", loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return LoginResult{}, err
	}
	if client.tokens != nil && result.Token != "" {
		if storeError := client.tokens.SetToken(result.Token); storeError != nil {
			return LoginResult{}, storeError
		}
	}
	return result, nil
}

// Logout invalidates the server-side session and clears the stored token.
func (client *Client) Logout(ctx context.Context) error {
	if err := client.do(ctx, http.MethodPost, "/api/auth/logout/", nil, nil); err != nil {
		return err
	}
	if client.tokens != nil {
		return client.tokens.ClearToken()
	}
	return nil
}

// CurrentUser returns the profile behind the stored token.
func (client *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := client.do(ctx, http.MethodGet, "/api/auth/user/", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}
