package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogdeck/internal/apperror"
)

// newTestDB returns a DB backed by an in-memory SQLite database that
// disappears when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "opening in-memory database")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVSetGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "blogApp_user", `{"id":"u1"}`))

	got, err := db.Get(ctx, "blogApp_user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, got)
}

func TestKVSetOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", "first"))
	require.NoError(t, db.Set(ctx, "k", "second"))

	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestKVGetMissing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "missing key should be ErrNotFound, got %v", err)
}

func TestKVDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", "v"))
	require.NoError(t, db.Delete(ctx, "k"))

	_, err := db.Get(ctx, "k")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	// Deleting again is fine.
	assert.NoError(t, db.Delete(ctx, "k"))
}

func TestKVDeletePrefix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "blogApp_user", "u"))
	require.NoError(t, db.Set(ctx, "blogApp_organizations", "[]"))
	require.NoError(t, db.Set(ctx, "blogApp_currentOrganization", "o"))
	require.NoError(t, db.Set(ctx, "otherApp_setting", "keep me"))

	require.NoError(t, db.DeletePrefix(ctx, "blogApp_"))

	for _, key := range []string{"blogApp_user", "blogApp_organizations", "blogApp_currentOrganization"} {
		_, err := db.Get(ctx, key)
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "key %s should be gone", key)
	}

	// Entries outside the prefix survive a logout-style clear.
	got, err := db.Get(ctx, "otherApp_setting")
	require.NoError(t, err)
	assert.Equal(t, "keep me", got)
}

func TestKVDeletePrefixEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// "blog_" contains the LIKE single-char wildcard; without escaping it
	// would also match "blogX..." keys.
	require.NoError(t, db.Set(ctx, "blog_a", "v"))
	require.NoError(t, db.Set(ctx, "blogXa", "survivor"))

	require.NoError(t, db.DeletePrefix(ctx, "blog_"))

	_, err := db.Get(ctx, "blog_a")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	got, err := db.Get(ctx, "blogXa")
	require.NoError(t, err)
	assert.Equal(t, "survivor", got)
}
