package users

import "time"

// User is a credential record. Email and PasswordHash are empty for accounts
// that sign in through an external identity provider; such accounts can
// never log in with a password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ExternalID   string
	Name         string
	WorkspaceID  string
	CreatedAt    time.Time
}

// HasPassword reports whether the record carries a password credential.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
