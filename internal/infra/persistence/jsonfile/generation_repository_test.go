package jsonfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costume-swap/internal/domain"
)

func TestGenerationRepository_SaveAndList(t *testing.T) {
	repo, err := NewGenerationRepository(filepath.Join(t.TempDir(), "generations.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Generation{Username: "alice", Filename: "a1.jpg"}))
	require.NoError(t, repo.Save(ctx, &domain.Generation{Username: "bob", Filename: "b1.jpg"}))
	require.NoError(t, repo.Save(ctx, &domain.Generation{Username: "alice", Filename: "a2.jpg"}))

	list, err := repo.ListByUsername(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2.jpg", list[0].Filename, "最新的记录排在前面")
	assert.Equal(t, "a1.jpg", list[1].Filename)

	limited, err := repo.ListByUsername(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a2.jpg", limited[0].Filename)
}

func TestGenerationRepository_SaveIsIdempotentByFilename(t *testing.T) {
	repo, err := NewGenerationRepository(filepath.Join(t.TempDir(), "generations.json"))
	require.NoError(t, err)
	ctx := context.Background()

	first := &domain.Generation{Username: "alice", Filename: "same.jpg"}
	require.NoError(t, repo.Save(ctx, first))
	retry := &domain.Generation{Username: "alice", Filename: "same.jpg"}
	require.NoError(t, repo.Save(ctx, retry))
	assert.Equal(t, first.ID, retry.ID)

	list, err := repo.ListByUsername(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
