package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"havenhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.User{
		ID:        3,
		FirstName: "Igor",
		LastName:  "Petrov",
		Email:     "igor@example.com",
		Roles:     []models.Role{models.RoleReceptionist},
	}
	require.NoError(t, store.Save(ctx, "tok-abc", user))

	token, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, user.Email, loaded.Email)
	assert.Equal(t, user.Roles, loaded.Roles)
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestStore(t)

	token, user, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-1", models.User{ID: 1, Email: "a@example.com"}))
	require.NoError(t, store.Save(ctx, "tok-2", models.User{ID: 2, Email: "b@example.com"}))

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, int64(2), user.ID)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-1", models.User{ID: 1}))
	require.NoError(t, store.Clear(ctx))

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestLoadCorruptUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value) VALUES ('token', 'tok-x'), ('user', 'not json')`)
	require.NoError(t, err)

	_, _, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadTokenWithoutUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value) VALUES ('token', 'tok-x')`)
	require.NoError(t, err)

	_, _, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}
