package auth

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidCode  = errors.New("invalid or expired confirmation code")
	ErrInvalidToken = errors.New("invalid or expired token")
)
