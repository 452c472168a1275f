package model

import "time"

// RegisterParams holds the validated registration input.
type RegisterParams struct {
	Email       string
	Password    string
	Name        string
	DateOfBirth time.Time
}

// ResendResult reports the outcome of a verification resend.
type ResendResult struct {
	AlreadyVerified bool
}
