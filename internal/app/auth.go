package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"chatwire/internal/client"
	"chatwire/internal/credential"
	"chatwire/internal/logging"
	"chatwire/internal/runstatus"
)

const (
	refreshRetryDelay = 15 * time.Second
	minRefreshWait    = time.Second
	loginMaxElapsed   = 2 * time.Minute
)

type tokenState struct {
	mu      sync.RWMutex
	current client.Tokens
}

func (s *tokenState) set(tokens client.Tokens) {
	s.mu.Lock()
	s.current = client.Tokens{
		AccessToken:  strings.TrimSpace(tokens.AccessToken),
		RefreshToken: strings.TrimSpace(tokens.RefreshToken),
	}
	s.mu.Unlock()
}

func (s *tokenState) setAccess(token string) {
	s.mu.Lock()
	s.current.AccessToken = strings.TrimSpace(token)
	s.mu.Unlock()
}

func (s *tokenState) access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

func (s *tokenState) refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

// login exchanges the configured username and password for tokens. Network
// errors are retried; a rejected login is not.
func (a *ChatApp) login(ctx context.Context) (client.Tokens, error) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = a.reconnectDelay
	retry.MaxInterval = a.reconnectMaxDelay

	tokens, err := backoff.Retry(ctx, func() (client.Tokens, error) {
		tokens, err := a.client.Login(ctx, a.opts.Username, a.opts.Password)
		if client.IsUnauthorized(err) {
			return client.Tokens{}, backoff.Permanent(err)
		}
		return tokens, err
	},
		backoff.WithBackOff(retry),
		backoff.WithMaxElapsedTime(loginMaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn("login failed; retrying",
				logging.Field("error", err),
				logging.Field("next_retry", next.String()))
		}),
	)
	if err != nil {
		if client.IsUnauthorized(err) {
			a.setRuntimeStatus(runstatus.DisconnectedAuth)
			return client.Tokens{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return client.Tokens{}, fmt.Errorf("login failed: %w", err)
	}
	a.logger.Info("logged in", logging.Field("username", strings.TrimSpace(a.opts.Username)))
	return tokens, nil
}

// refreshDelay returns how long to wait before refreshing cred so the new
// token is in place lead before expiry.
func refreshDelay(cred credential.Credential, lead time.Duration, now time.Time) time.Duration {
	if !cred.Valid() {
		return 0
	}
	wait := cred.ExpiresAt.Sub(now) - lead
	if wait < minRefreshWait {
		return minRefreshWait
	}
	return wait
}

// runRefreshLoop renews the access token ahead of expiry. A refresh for the
// same identity leaves the realtime connection untouched.
func (a *ChatApp) runRefreshLoop(ctx context.Context) {
	var retryAfter time.Duration
	for {
		wait := retryAfter
		if wait == 0 {
			wait = refreshDelay(a.gate.Inspect(a.tokens.access()), a.opts.RefreshLead, a.now())
		}
		a.logger.Debug("scheduling token refresh", logging.Field("in", wait.String()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Debug("stopping token refresh: context canceled", logging.Field("error", ctx.Err()))
			return
		case <-timer.C:
		}

		tokens, err := a.renewTokens(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if client.IsUnauthorized(err) {
				a.logger.Warn("token refresh rejected; logging out", logging.Field("error", err))
				a.tokens.setAccess("")
				_ = a.session.SetCredential(ctx, "")
				a.setRuntimeStatus(runstatus.DisconnectedAuth)
				return
			}
			a.logger.Warn("token refresh failed", logging.Field("error", err))
			retryAfter = a.refreshRetryDelay
			continue
		}
		retryAfter = 0
		a.tokens.set(tokens)
		a.logger.Debug("access token refreshed")
		a.wake()
	}
}

// renewTokens tries the refresh token first and falls back to a fresh login
// when the refresh token itself was rejected.
func (a *ChatApp) renewTokens(ctx context.Context) (client.Tokens, error) {
	tokens, err := a.client.Refresh(ctx, a.tokens.refresh())
	if err == nil || !client.IsUnauthorized(err) {
		return tokens, err
	}
	if strings.TrimSpace(a.opts.Username) == "" {
		return client.Tokens{}, err
	}
	a.logger.Debug("refresh token rejected; logging in again", logging.Field("error", err))
	tokens, loginErr := a.client.Login(ctx, a.opts.Username, a.opts.Password)
	if loginErr != nil {
		return client.Tokens{}, errors.Join(err, loginErr)
	}
	return tokens, nil
}

func (a *ChatApp) onTokenFileChange(ctx context.Context, token string) {
	a.tokens.setAccess(token)
	if token == "" {
		a.logger.Info("token removed; logging out")
		if err := a.session.SetCredential(ctx, ""); err != nil && ctx.Err() == nil {
			a.logger.Debug("logout incomplete", logging.Field("error", err))
		}
		return
	}
	if !a.gate.Inspect(token).Valid() {
		a.logger.Warn("token file does not hold a usable token")
	}
	a.wake()
}
