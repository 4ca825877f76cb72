package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chatwire/internal/logging"
)

var errMissingAccessToken = errors.New("auth response did not include an access token")

func (c *ChatClient) Login(ctx context.Context, username string, password string) (Tokens, error) {
	body, err := json.Marshal(loginRequest{Username: strings.TrimSpace(username), Password: password})
	if err != nil {
		return Tokens{}, err
	}
	c.logger.Debug("logging in", logging.Field("username", strings.TrimSpace(username)))
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoints.LoginURL, bytes.NewReader(body))
	if err != nil {
		return Tokens{}, err
	}
	return c.exchange(req, "login")
}

func (c *ChatClient) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return Tokens{}, &HTTPStatusError{StatusCode: http.StatusUnauthorized, Status: "missing refresh token"}
	}
	body, err := json.Marshal(refreshRequest{RefreshToken: token})
	if err != nil {
		return Tokens{}, err
	}
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoints.RefreshURL, bytes.NewReader(body))
	if err != nil {
		return Tokens{}, err
	}
	tokens, err := c.exchange(req, "token refresh")
	if err != nil {
		return Tokens{}, err
	}
	// Some deployments rotate only the access token.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = token
	}
	return tokens, nil
}

func (c *ChatClient) exchange(req *http.Request, action string) (Tokens, error) {
	tokens := Tokens{}
	if err := c.do(req, action, &tokens); err != nil {
		return Tokens{}, err
	}
	tokens.AccessToken = strings.TrimSpace(tokens.AccessToken)
	tokens.RefreshToken = strings.TrimSpace(tokens.RefreshToken)
	if tokens.AccessToken == "" {
		return Tokens{}, errMissingAccessToken
	}
	return tokens, nil
}
