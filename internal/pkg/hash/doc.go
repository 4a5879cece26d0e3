// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords are stored with a salted, slow hash (bcrypt or argon2id) through
// Password. One-time codes are short lived and need a deterministic digest so
// they can be compared without a salt lookup; HMACSHA256 keyed with the service
// secret serves that purpose.
package hash
