package auth

import "errors"

var (
	// ErrTokenMissing indicates no bearer token was supplied.
	ErrTokenMissing = errors.New("auth: token missing")
	// ErrTokenInvalid indicates the token failed signature or format checks.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrAccessDenied indicates an authenticated caller lacks permission.
	ErrAccessDenied = errors.New("auth: access denied")
)
