// Package users is the credential store: lookup by email, id allocation,
// insertion and password hash upgrades.
package users

import (
	"context"
)

// Repository is implemented by PostgresRepository and MemoryRepository.
//
// GetByEmail returns common.ErrorNotFound when no record matches (case
// insensitive). Insert returns common.ErrorAlreadyExists when the email is
// already bound.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	NewID(ctx context.Context) (string, error)
	NewWorkspaceID(ctx context.Context) (string, error)
	Insert(ctx context.Context, user *User) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}
