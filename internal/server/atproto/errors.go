package atproto

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNetwork            = errors.New("network error")
	ErrServer             = errors.New("server error")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidServerURL   = errors.New("invalid server URL")
	ErrUnexpectedStatus   = errors.New("unexpected response")
)
