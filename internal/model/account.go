package model

import "time"

// Account is a registered player account. Connecting with a registered name
// requires the matching password; unregistered names connect as guests.
type Account struct {
	Username     string    `json:"username"` // unique at the storage layer
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
