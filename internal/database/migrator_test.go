package database

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-service/migrations"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("fails with nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("fails with nil pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{}, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})
}

func TestOpenSource_MissingPath(t *testing.T) {
	_, _, err := openSource("/nonexistent/migrations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations path validation failed")
}

func TestOpenSource_Directory(t *testing.T) {
	src, name, err := openSource("../../migrations")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "file", name)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestEmbeddedSource(t *testing.T) {
	src, err := EmbeddedSource(migrations.FS)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	// Every up migration has a matching down migration.
	version := first
	count := 1
	for {
		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "up %d", version)
		up.Close()
		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "down %d", version)
		down.Close()

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		version = next
		count++
	}
	assert.Equal(t, 3, count)
}

func TestMigrations(t *testing.T) {
	t.Run("lists the embedded set", func(t *testing.T) {
		got, err := Migrations("")
		require.NoError(t, err)
		assert.Equal(t, []Migration{
			{Version: 1, Name: "create_manuscripts"},
			{Version: 2, Name: "create_people_and_texts"},
			{Version: 3, Name: "create_outbox_events"},
		}, got)
	})

	t.Run("directory matches the embedded set", func(t *testing.T) {
		embedded, err := Migrations("")
		require.NoError(t, err)
		onDisk, err := Migrations("../../migrations")
		require.NoError(t, err)
		assert.Equal(t, embedded, onDisk)
	})

	t.Run("empty directory has no migrations", func(t *testing.T) {
		got, err := Migrations(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := Migrations("/nonexistent/migrations")
		assert.Error(t, err)
	})
}
