package model

import "errors"

// Store-level sentinel errors. Services translate them into API errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
	ErrTokenExists   = errors.New("refresh token already exists")
)
