// Package models holds the persistent domain types of the server.
package models

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	// TOTPSecret is the base32 seed for the user's authenticator app.
	// Never serialize it.
	TOTPSecret string
	CreatedAt  time.Time
}
