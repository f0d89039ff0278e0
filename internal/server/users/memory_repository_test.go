package users

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := &User{ID: "u-1", Email: "Alice@Example.com", PasswordHash: "h", ExternalID: "password", Name: "Alice", WorkspaceID: "w-1"}
	require.NoError(t, repo.Insert(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, *u, *got)

	got.Name = "changed"
	again, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	_, err := NewMemoryRepository().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Insert(ctx, &User{ID: "u-1", Email: "a@b"}))
	assert.ErrorIs(t, repo.Insert(ctx, &User{ID: "u-2", Email: "A@B"}), common.ErrorAlreadyExists)
	assert.ErrorIs(t, repo.Insert(ctx, &User{ID: "u-1", Email: "c@d"}), common.ErrorAlreadyExists)
}

func TestMemoryRepository_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if repo.Insert(ctx, &User{ID: fmt.Sprintf("u-%d", i), Email: "race@example.com"}) == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
}

func TestMemoryRepository_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Insert(ctx, &User{ID: "u-1", Email: "a@b", PasswordHash: "old"}))

	require.NoError(t, repo.UpdatePasswordHash(ctx, "u-1", "new"))
	got, err := repo.GetByEmail(ctx, "a@b")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "u-x", "new"), common.ErrorNotFound)
}
