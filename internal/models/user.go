package models

// User is the identity of record. PasswordHash is always an encoded
// argon2id hash, never plaintext.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
}
