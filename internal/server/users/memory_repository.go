package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/medconb/internal/common"
)

// MemoryRepository keeps users in process memory. It backs the server when
// no database DSN is configured and stands in for PostgreSQL in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}

	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) NewID(ctx context.Context) (string, error) {
	return newUUID(), nil
}

func (r *MemoryRepository) NewWorkspaceID(ctx context.Context) (string, error) {
	return newUUID(), nil
}

func (r *MemoryRepository) Insert(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; ok {
		return common.ErrorAlreadyExists
	}
	if user.Email != "" {
		if _, ok := r.byEmail[emailKey(user.Email)]; ok {
			return common.ErrorAlreadyExists
		}
	}

	user.CreatedAt = time.Now().UTC()
	u := *user
	r.byID[u.ID] = &u
	if u.Email != "" {
		r.byEmail[emailKey(u.Email)] = u.ID
	}

	return nil
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash

	return nil
}
