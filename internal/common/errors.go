// Package common defines shared constants and sentinel errors used across
// the credauth server, its transports and the operator CLI. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Malformed input.
	ErrUsernameMissing = errors.New("username not provided")
	ErrPasswordMissing = errors.New("password not provided")

	// Identity lookup.
	ErrUsernameNotFound = errors.New("username not found")

	// Forbidden outcomes.
	ErrAccountLocked = errors.New("account locked")
	ErrInvalidRole   = errors.New("invalid role")
	ErrUsernameTaken = errors.New("username taken")

	// Authentication failure; services wrap it with the updated attempt count.
	ErrIncorrectPassword = errors.New("incorrect password")

	// Token errors (invalid or malformed token, expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
