/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/codenames/games/codenames"
	"github.com/Seednode/codenames/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "codenames.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Store { return openTestStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestReopenKeepsRoomsAndSkipsAppliedMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "codenames.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = store.Create(ctx, storagetest.Room("ABC123", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	room, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.EqualValues(t, 1, room.Version)
	require.NoError(t, room.Validate())
}

func TestCorruptDocumentIsMalformedState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (room_id, version, document, created_at, updated_at) VALUES (?, 1, ?, 0, 0)`,
		"BAD001", "{not json")
	require.NoError(t, err)

	_, err = store.Get(ctx, "BAD001")
	assert.ErrorIs(t, err, codenames.ErrMalformedState)
}

func TestExtractUp(t *testing.T) {
	t.Parallel()

	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "CREATE TABLE a (id TEXT);", extractUp(content))
	assert.Equal(t, "CREATE TABLE b (id TEXT);", extractUp("CREATE TABLE b (id TEXT);\n"))
}
