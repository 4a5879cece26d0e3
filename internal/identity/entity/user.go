package entity

import "time"

// User is a registered account. Username and email are unique; the email is stored lower-cased.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
