package store_test

import (
	"context"
	"testing"

	"github.com/serroba/golinks/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises the behavior every links.Repository must share.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) links.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		link, err := repo.Get(ctx, "missing")

		assert.Nil(t, link)
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "docs", "https://docs.example.com"))

		link, err := repo.Get(ctx, "docs")

		require.NoError(t, err)
		assert.Equal(t, "docs", link.Name)
		assert.Equal(t, "https://docs.example.com", link.URL)
		assert.Equal(t, int64(0), link.VisitCount)
	})

	t.Run("duplicate create fails and keeps the first", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "docs", "https://first"))

		err := repo.Create(ctx, "docs", "https://second")

		require.ErrorIs(t, err, links.ErrDuplicateName)

		link, err := repo.Get(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, "https://first", link.URL)
	})

	t.Run("increment count", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "docs", "https://docs"))
		require.NoError(t, repo.IncrementCount(ctx, "docs"))
		require.NoError(t, repo.IncrementCount(ctx, "docs"))

		link, err := repo.Get(ctx, "docs")

		require.NoError(t, err)
		assert.Equal(t, int64(2), link.VisitCount)
	})

	t.Run("increment count of missing name is a no-op", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.IncrementCount(ctx, "ghost"))

		_, err := repo.Get(ctx, "ghost")
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("update renames and keeps count", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "old", "https://old"))
		require.NoError(t, repo.IncrementCount(ctx, "old"))

		ok, err := repo.Update(ctx, "old", "new", "https://new")

		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.Get(ctx, "old")
		require.ErrorIs(t, err, links.ErrNotFound)

		link, err := repo.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, "https://new", link.URL)
		assert.Equal(t, int64(1), link.VisitCount)
	})

	t.Run("update in place changes url", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "a", "https://a"))

		ok, err := repo.Update(ctx, "a", "a", "https://b")

		require.NoError(t, err)
		assert.True(t, ok)

		link, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "https://b", link.URL)
	})

	t.Run("update of vanished original reports false", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "a", "https://a"))
		require.NoError(t, repo.Delete(ctx, "a"))

		ok, err := repo.Update(ctx, "a", "b", "https://b")

		require.NoError(t, err)
		assert.False(t, ok)

		_, err = repo.Get(ctx, "b")
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("rename onto existing name is a duplicate", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "a", "https://a"))
		require.NoError(t, repo.Create(ctx, "b", "https://b"))

		_, err := repo.Update(ctx, "a", "b", "https://c")

		require.ErrorIs(t, err, links.ErrDuplicateName)

		link, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "https://a", link.URL)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "a", "https://a"))
		require.NoError(t, repo.Delete(ctx, "a"))
		require.NoError(t, repo.Delete(ctx, "a"))
	})

	t.Run("list returns all links", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, "a", "https://a"))
		require.NoError(t, repo.Create(ctx, "b", "https://b"))

		all, err := repo.List(ctx)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, []string{all[0].Name, all[1].Name})
	})
}
