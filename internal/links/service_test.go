package links_test

import (
	"context"
	"testing"

	"github.com/serroba/golinks/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(repo *fakeRepo) (*links.Service, *recordingAudit) {
	audit := &recordingAudit{}

	return links.NewService(repo, audit, zap.NewNop()), audit
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		linkName string
		url      string
		expected error
	}{
		{name: "http url", linkName: "a", url: "http://x", expected: nil},
		{name: "https url", linkName: "a", url: "https://x", expected: nil},
		{name: "empty name", linkName: "", url: "https://x", expected: links.ErrInvalidName},
		{name: "empty name wins over bad url", linkName: "", url: "ftp://x", expected: links.ErrInvalidName},
		{name: "ftp url", linkName: "a", url: "ftp://x", expected: links.ErrInvalidURLScheme},
		{name: "empty url", linkName: "a", url: "", expected: links.ErrInvalidURLScheme},
		{name: "scheme is case sensitive", linkName: "a", url: "HTTP://x", expected: links.ErrInvalidURLScheme},
		{name: "missing slashes", linkName: "a", url: "http:x", expected: links.ErrInvalidURLScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := links.Validate(tt.linkName, tt.url)

			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates link and logs create", func(t *testing.T) {
		repo := newFakeRepo()
		svc, audit := newTestService(repo)

		err := svc.Create(ctx, "docs", "https://docs.example.com")

		require.NoError(t, err)
		assert.Equal(t, "https://docs.example.com", repo.links["docs"].URL)
		require.Len(t, audit.events, 1)
		assert.Equal(t, links.EventCreate, audit.events[0].Kind)
		assert.Equal(t, "docs", audit.events[0].Name)
		assert.Equal(t, "https://docs.example.com", audit.events[0].Detail)
	})

	t.Run("second create with same name fails and keeps the first", func(t *testing.T) {
		repo := newFakeRepo()
		svc, audit := newTestService(repo)

		require.NoError(t, svc.Create(ctx, "docs", "https://first"))

		err := svc.Create(ctx, "docs", "https://second")

		require.ErrorIs(t, err, links.ErrDuplicateName)
		assert.Equal(t, "https://first", repo.links["docs"].URL)
		assert.Len(t, audit.events, 1)
	})

	t.Run("rejects bad scheme before touching the store", func(t *testing.T) {
		repo := newFakeRepo()
		repo.createErr = errMock
		svc, _ := newTestService(repo)

		err := svc.Create(ctx, "docs", "javascript:alert(1)")

		require.ErrorIs(t, err, links.ErrInvalidURLScheme)
		assert.Empty(t, repo.links)
	})

	t.Run("audit failure does not fail create", func(t *testing.T) {
		repo := newFakeRepo()
		audit := &recordingAudit{err: errMock}
		svc := links.NewService(repo, audit, zap.NewNop())

		err := svc.Create(ctx, "docs", "https://x")

		require.NoError(t, err)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("renames and repoints", func(t *testing.T) {
		repo := newFakeRepo("old", "https://old")
		svc, audit := newTestService(repo)

		err := svc.Update(ctx, "old", "new", "https://new")

		require.NoError(t, err)
		assert.NotContains(t, repo.links, "old")
		assert.Equal(t, "https://new", repo.links["new"].URL)
		require.Len(t, audit.events, 1)
		assert.Equal(t, links.EventUpdate, audit.events[0].Kind)
	})

	t.Run("conflict when original was deleted by another actor", func(t *testing.T) {
		repo := newFakeRepo("a", "https://a")
		svc, audit := newTestService(repo)

		require.NoError(t, repo.Delete(ctx, "a"))

		err := svc.Update(ctx, "a", "b", "https://b")

		require.ErrorIs(t, err, links.ErrUpdateConflict)
		assert.Empty(t, repo.links)
		assert.Empty(t, audit.events)
	})

	t.Run("rename onto an existing name is a duplicate", func(t *testing.T) {
		repo := newFakeRepo("a", "https://a", "b", "https://b")
		svc, _ := newTestService(repo)

		err := svc.Update(ctx, "a", "b", "https://c")

		require.ErrorIs(t, err, links.ErrDuplicateName)
		assert.Equal(t, "https://a", repo.links["a"].URL)
		assert.Equal(t, "https://b", repo.links["b"].URL)
	})

	t.Run("validates before updating", func(t *testing.T) {
		repo := newFakeRepo("a", "https://a")
		svc, _ := newTestService(repo)

		err := svc.Update(ctx, "a", "", "https://a")

		require.ErrorIs(t, err, links.ErrInvalidName)
		assert.Equal(t, "https://a", repo.links["a"].URL)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and logs the old url", func(t *testing.T) {
		repo := newFakeRepo("a", "https://a")
		svc, audit := newTestService(repo)

		err := svc.Delete(ctx, "a")

		require.NoError(t, err)
		assert.Empty(t, repo.links)
		require.Len(t, audit.events, 1)
		assert.Equal(t, links.EventDelete, audit.events[0].Kind)
		assert.Equal(t, "https://a", audit.events[0].Detail)
	})

	t.Run("deleting a missing link is not an error", func(t *testing.T) {
		svc, _ := newTestService(newFakeRepo())

		assert.NoError(t, svc.Delete(ctx, "ghost"))
	})

	t.Run("propagates store errors", func(t *testing.T) {
		repo := newFakeRepo("a", "https://a")
		repo.deleteErr = errMock
		svc, _ := newTestService(repo)

		assert.ErrorIs(t, svc.Delete(ctx, "a"), errMock)
	})
}

func TestService_List(t *testing.T) {
	t.Run("sorts by name", func(t *testing.T) {
		repo := newFakeRepo("c", "https://c", "a", "https://a", "b", "https://b")
		svc, _ := newTestService(repo)

		all, err := svc.List(context.Background())

		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "a", all[0].Name)
		assert.Equal(t, "b", all[1].Name)
		assert.Equal(t, "c", all[2].Name)
	})

	t.Run("wraps store errors", func(t *testing.T) {
		repo := newFakeRepo()
		repo.listErr = errMock
		svc, _ := newTestService(repo)

		_, err := svc.List(context.Background())

		assert.ErrorIs(t, err, errMock)
	})
}

func TestService_Actor(t *testing.T) {
	ctx := context.WithValue(context.Background(), actorKey{}, "ada@example.com")
	actor := func(ctx context.Context) string {
		v, _ := ctx.Value(actorKey{}).(string)

		return v
	}

	t.Run("stamps every change with the actor", func(t *testing.T) {
		audit := &recordingAudit{}
		svc := links.NewService(newFakeRepo(), audit, zap.NewNop(), links.WithActor(actor))

		require.NoError(t, svc.Create(ctx, "docs", "https://docs"))
		require.NoError(t, svc.Update(ctx, "docs", "wiki", "https://wiki"))
		require.NoError(t, svc.Delete(ctx, "wiki"))

		require.Len(t, audit.events, 3)

		for _, e := range audit.events {
			assert.Equal(t, "ada@example.com", e.Actor, e.Kind)
		}
	})

	t.Run("anonymous without the option", func(t *testing.T) {
		svc, audit := newTestService(newFakeRepo())

		require.NoError(t, svc.Create(ctx, "docs", "https://docs"))

		require.Len(t, audit.events, 1)
		assert.Empty(t, audit.events[0].Actor)
	})
}

type actorKey struct{}
