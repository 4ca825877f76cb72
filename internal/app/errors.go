package app

import "errors"

var (
	ErrAuthenticationFailed = errors.New("chat authentication failed")
	ErrNoCredentialSource   = errors.New("no token file or login configured")
)
