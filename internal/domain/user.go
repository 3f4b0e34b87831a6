package domain

import "time"

// User represents a registered account. Username and email are stored
// lowercased; uniqueness on both is case-insensitive.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
